package partition

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of one disk.
func Validate(disk Disk) error {
	if disk.TotalSizeMB <= 0 {
		return fmt.Errorf("%w: disk %s has no capacity", ErrInvalidLayout, disk.ID)
	}
	if len(disk.Segments) == 0 {
		return fmt.Errorf("%w: disk %s has no segments", ErrInvalidLayout, disk.ID)
	}

	var (
		sum   int64
		boots int
		ids   = make(map[string]bool, len(disk.Segments))
	)
	for i, seg := range disk.Segments {
		if seg.ID == "" || ids[seg.ID] {
			return fmt.Errorf("%w: disk %s segment %d has a missing or repeated id", ErrInvalidLayout, disk.ID, i)
		}
		ids[seg.ID] = true

		if seg.SizeMB <= 0 {
			return fmt.Errorf("%w: segment %s has non-positive size %d", ErrInvalidLayout, seg.ID, seg.SizeMB)
		}
		sum += seg.SizeMB

		if i > 0 && seg.Unallocated() && disk.Segments[i-1].Unallocated() {
			return fmt.Errorf("%w: adjacent unallocated segments at %d and %d", ErrInvalidLayout, i-1, i)
		}
		if err := validateSegment(seg); err != nil {
			return err
		}
		if seg.IsBoot {
			boots++
		}
	}

	if sum != disk.TotalSizeMB {
		return fmt.Errorf("%w: disk %s segments sum to %d MB, capacity is %d MB", ErrInvalidLayout, disk.ID, sum, disk.TotalSizeMB)
	}
	if boots > 1 {
		return fmt.Errorf("%w: disk %s has %d boot segments", ErrInvalidLayout, disk.ID, boots)
	}
	return nil
}

// validateSegment checks the attributes of a single segment against the
// values the engine itself would produce.
func validateSegment(seg Segment) error {
	switch seg.Kind {
	case KindUnallocated:
		if seg.IsSystem || seg.IsBoot || seg.DriveLetter != "" {
			return fmt.Errorf("%w: unallocated segment %s carries volume attributes", ErrInvalidLayout, seg.ID)
		}
		if seg.FileSystem != FSUnformatted {
			return fmt.Errorf("%w: unallocated segment %s has file system %q", ErrInvalidLayout, seg.ID, seg.FileSystem)
		}
		return nil
	case KindSystem, KindPrimary:
	default:
		return fmt.Errorf("%w: segment %s has unknown kind %q", ErrInvalidLayout, seg.ID, seg.Kind)
	}

	if !isVolumeFileSystem(seg.FileSystem) {
		return fmt.Errorf("%w: segment %s has file system %q", ErrInvalidLayout, seg.ID, seg.FileSystem)
	}
	if seg.DriveLetter != "" {
		letter, err := normalizeDriveLetter(seg.DriveLetter)
		if err != nil || letter != seg.DriveLetter {
			return fmt.Errorf("%w: segment %s has drive letter %q", ErrInvalidLayout, seg.ID, seg.DriveLetter)
		}
	}
	return nil
}

// ValidateAll checks every disk plus the drive-letter uniqueness that spans disks.
func ValidateAll(disks []Disk) error {
	seenDisks := make(map[string]bool, len(disks))
	letters := make(map[string]string)
	for _, disk := range disks {
		if seenDisks[disk.ID] {
			return fmt.Errorf("%w: duplicate disk id %s", ErrInvalidLayout, disk.ID)
		}
		seenDisks[disk.ID] = true

		if err := Validate(disk); err != nil {
			return err
		}
		for _, seg := range disk.Segments {
			if seg.DriveLetter == "" {
				continue
			}
			letter := seg.DriveLetter
			if owner, ok := letters[letter]; ok {
				return fmt.Errorf("%w: %s: used by %s and %s", ErrDuplicateDriveLetter, letter, owner, seg.ID)
			}
			letters[letter] = seg.ID
		}
	}
	return nil
}

// normalizeDriveLetter upper-cases a single ASCII letter. Empty input means no letter.
func normalizeDriveLetter(letter string) (string, error) {
	letter = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(letter), ":"))
	if letter == "" {
		return "", nil
	}
	if len(letter) != 1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDriveLetter, letter)
	}
	c := letter[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidDriveLetter, letter)
	}
	return string(c), nil
}
