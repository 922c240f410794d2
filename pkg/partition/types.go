package partition

import (
	"fmt"
	"strings"
)

// Kind is the role a segment plays in the disk layout.
type Kind string

const (
	KindSystem      Kind = "System"
	KindPrimary     Kind = "Primary"
	KindUnallocated Kind = "Unallocated"
)

// FileSystem is the file-system label carried by a segment.
type FileSystem string

const (
	FSNTFS        FileSystem = "NTFS"
	FSFAT32       FileSystem = "FAT32"
	FSExFAT       FileSystem = "exFAT"
	FSUnformatted FileSystem = "Unformatted"
)

// MediaType is the kind of drive a disk represents.
type MediaType string

const (
	MediaHDD MediaType = "HDD"
	MediaSSD MediaType = "SSD"
)

// VolumeFileSystems lists the file systems a partition can be formatted with.
var VolumeFileSystems = []FileSystem{FSNTFS, FSFAT32, FSExFAT}

// ParseFileSystem matches name case-insensitively against the known file systems.
func ParseFileSystem(name string) (FileSystem, error) {
	for _, fs := range []FileSystem{FSNTFS, FSFAT32, FSExFAT, FSUnformatted} {
		if strings.EqualFold(name, string(fs)) {
			return fs, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFileSystem, name)
}

// isVolumeFileSystem reports whether fs can back a partition.
func isVolumeFileSystem(fs FileSystem) bool {
	for _, v := range VolumeFileSystems {
		if v == fs {
			return true
		}
	}
	return false
}

// Segment is a contiguous slice of a disk.
type Segment struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	FileSystem  FileSystem `json:"file_system"`
	Label       string     `json:"label"`
	DriveLetter string     `json:"drive_letter,omitempty"`
	SizeMB      int64      `json:"size_mb"`
	IsSystem    bool       `json:"is_system"`
	IsBoot      bool       `json:"is_boot"`
}

// Unallocated reports whether the segment is free space.
func (s Segment) Unallocated() bool {
	return s.Kind == KindUnallocated
}

// Protected reports whether the segment refuses delete and resize.
func (s Segment) Protected() bool {
	return s.IsSystem || s.Kind == KindSystem
}

// DisplayName is the name shown in listings, e.g. "Windows (C:)".
func (s Segment) DisplayName() string {
	if s.Unallocated() {
		return "Unallocated"
	}
	name := s.Label
	if name == "" {
		name = "New Volume"
	}
	if s.DriveLetter != "" {
		name += fmt.Sprintf(" (%s:)", s.DriveLetter)
	}
	return name
}

// Disk is a simulated drive with a fixed capacity.
type Disk struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Media       MediaType `json:"media"`
	TotalSizeMB int64     `json:"total_size_mb"`
	Online      bool      `json:"online"`
	Segments    []Segment `json:"segments"`
}

// FreeMB sums the unallocated space on the disk.
func (d Disk) FreeMB() int64 {
	var free int64
	for _, seg := range d.Segments {
		if seg.Unallocated() {
			free += seg.SizeMB
		}
	}
	return free
}

// IndexOf returns the position of the segment with the given id, or -1.
func (d Disk) IndexOf(segmentID string) int {
	for i, seg := range d.Segments {
		if seg.ID == segmentID {
			return i
		}
	}
	return -1
}

func (d Disk) clone() Disk {
	out := d
	out.Segments = append([]Segment(nil), d.Segments...)
	return out
}

// Snapshot is a serializable copy of the whole engine state.
type Snapshot struct {
	Disks    []Disk `json:"disks"`
	Selected string `json:"selected,omitempty"`
}

const (
	// InitialDiskID identifies the system disk present at startup.
	InitialDiskID = "disk-0"
	// RemovableDiskID identifies the removable disk added on demand.
	RemovableDiskID = "disk-1"

	InitialDiskMB      int64 = 1_000_000
	SystemReservedMB   int64 = 500
	WindowsPartitionMB int64 = 204_800
	RemovableDiskMB    int64 = 16_384
)

// NewInitialDisk builds Disk 0 with its reserved, system and free segments.
func NewInitialDisk(newID func() string) Disk {
	return Disk{
		ID:          InitialDiskID,
		Name:        "Disk 0",
		Media:       MediaHDD,
		TotalSizeMB: InitialDiskMB,
		Online:      true,
		Segments: []Segment{
			{
				ID:         newID(),
				Kind:       KindSystem,
				FileSystem: FSNTFS,
				Label:      "System Reserved",
				SizeMB:     SystemReservedMB,
				IsSystem:   true,
				IsBoot:     true,
			},
			{
				ID:          newID(),
				Kind:        KindPrimary,
				FileSystem:  FSNTFS,
				Label:       "Windows",
				DriveLetter: "C",
				SizeMB:      WindowsPartitionMB,
				IsSystem:    true,
			},
			unallocated(newID(), InitialDiskMB-SystemReservedMB-WindowsPartitionMB),
		},
	}
}

// NewRemovableDisk builds the empty removable disk.
func NewRemovableDisk(newID func() string) Disk {
	return Disk{
		ID:          RemovableDiskID,
		Name:        "Disk 1 (Removable)",
		Media:       MediaSSD,
		TotalSizeMB: RemovableDiskMB,
		Online:      true,
		Segments:    []Segment{unallocated(newID(), RemovableDiskMB)},
	}
}

func unallocated(id string, sizeMB int64) Segment {
	return Segment{
		ID:         id,
		Kind:       KindUnallocated,
		FileSystem: FSUnformatted,
		Label:      "Unallocated",
		SizeMB:     sizeMB,
	}
}

// FormatSize renders a size in MB with the largest fitting unit.
func FormatSize(sizeMB int64) string {
	switch {
	case sizeMB >= 1024*1024:
		return fmt.Sprintf("%.2f TB", float64(sizeMB)/(1024*1024))
	case sizeMB >= 1024:
		return fmt.Sprintf("%.2f GB", float64(sizeMB)/1024)
	default:
		return fmt.Sprintf("%d MB", sizeMB)
	}
}
