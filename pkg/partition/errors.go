package partition

import "errors"

var (
	// ErrInvalidTarget is returned when the operation does not apply to the chosen segment,
	// such as creating on a partition or deleting free space.
	ErrInvalidTarget = errors.New("invalid target segment")

	// ErrProtectedSegment is returned when deleting or resizing a system segment.
	ErrProtectedSegment = errors.New("segment is protected")

	// ErrInvalidShrinkAmount is returned when a shrink would leave nothing behind or frees nothing.
	ErrInvalidShrinkAmount = errors.New("invalid shrink amount")

	// ErrInvalidExtendAmount is returned when the extend amount is not positive.
	ErrInvalidExtendAmount = errors.New("invalid extend amount")

	// ErrNoAdjacentFreeSpace is returned when no unallocated segment follows the target.
	ErrNoAdjacentFreeSpace = errors.New("no adjacent unallocated space")

	// ErrInsufficientFreeSpace is returned when the adjacent free space is smaller than requested.
	ErrInsufficientFreeSpace = errors.New("insufficient adjacent free space")

	// ErrDuplicateDriveLetter is returned when another volume already uses the drive letter.
	ErrDuplicateDriveLetter = errors.New("drive letter already in use")

	// ErrInvalidDriveLetter is returned when the drive letter is not a single letter A-Z.
	ErrInvalidDriveLetter = errors.New("invalid drive letter")

	// ErrInvalidFileSystem is returned for an unknown or non-volume file system.
	ErrInvalidFileSystem = errors.New("invalid file system")

	// ErrDiskNotFound is returned when the disk id is unknown.
	ErrDiskNotFound = errors.New("disk not found")

	// ErrSegmentNotFound is returned when the segment id is unknown on the disk.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrDiskExists is returned when adding a disk that is already attached.
	ErrDiskExists = errors.New("disk already exists")

	// ErrInvalidLayout is returned when a layout breaks a structural invariant.
	ErrInvalidLayout = errors.New("invalid disk layout")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidTarget, "InvalidTarget"},
	{ErrProtectedSegment, "ProtectedSegment"},
	{ErrInvalidShrinkAmount, "InvalidShrinkAmount"},
	{ErrInvalidExtendAmount, "InvalidExtendAmount"},
	{ErrNoAdjacentFreeSpace, "NoAdjacentFreeSpace"},
	{ErrInsufficientFreeSpace, "InsufficientFreeSpace"},
	{ErrDuplicateDriveLetter, "DuplicateDriveLetter"},
	{ErrInvalidDriveLetter, "InvalidDriveLetter"},
	{ErrInvalidFileSystem, "InvalidFileSystem"},
	{ErrDiskNotFound, "DiskNotFound"},
	{ErrSegmentNotFound, "SegmentNotFound"},
	{ErrDiskExists, "DiskExists"},
	{ErrInvalidLayout, "InvalidLayout"},
}

// Code returns the stable kind name of an engine error, or "Internal" for anything else.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}

// IsNotFound reports whether err refers to a missing disk or segment.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDiskNotFound) || errors.Is(err, ErrSegmentNotFound)
}
