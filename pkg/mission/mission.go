package mission

import (
	"fmt"
	"strings"

	"disksim/pkg/partition"
)

// Mission is a guided exercise checked against the current disks.
type Mission struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Objectives  []string `json:"objectives"`

	// Requires names a disk that must be attached before the check runs.
	Requires string `json:"requires,omitempty"`

	validate func(disks []partition.Disk) bool
}

// Validate reports whether the disks satisfy the mission. It fails with
// ErrRequirementMissing when a required disk is not attached.
func (m Mission) Validate(disks []partition.Disk) (bool, error) {
	if m.Requires != "" {
		if _, ok := findDisk(disks, m.Requires); !ok {
			return false, fmt.Errorf("%w: mission %d needs %s", ErrRequirementMissing, m.ID, m.Requires)
		}
	}
	return m.validate(disks), nil
}

var missions = []Mission{
	{
		ID:          1,
		Title:       "The New Drive",
		Description: "You've just installed a new 1TB hard drive. Prepare it for use by creating a primary partition.",
		Objectives: []string{
			"Initialize Disk 0",
			"Create a New Simple Volume (Full Capacity)",
			"Assign any drive letter",
			"Format as NTFS",
		},
		validate: func(disks []partition.Disk) bool {
			disk, ok := findDisk(disks, partition.InitialDiskID)
			if !ok {
				return false
			}
			for _, seg := range disk.Segments {
				if !seg.Unallocated() && seg.FileSystem == partition.FSNTFS && seg.SizeMB > 900_000 {
					return true
				}
			}
			return false
		},
	},
	{
		ID:          2,
		Title:       "Space Management",
		Description: "The system drive is getting full. Shrink an existing partition to create room for a new one.",
		Objectives: []string{
			"Shrink the D: drive by at least 50GB",
			"Extend the C: drive to use the newly available space",
		},
		validate: func(disks []partition.Disk) bool {
			disk, ok := findDisk(disks, partition.InitialDiskID)
			if !ok {
				return false
			}
			for _, seg := range disk.Segments {
				if seg.Unallocated() {
					continue
				}
				if seg.DriveLetter == "C" || strings.Contains(seg.Label, "C:") {
					return seg.SizeMB > 250_000
				}
			}
			return false
		},
	},
	{
		ID:          3,
		Title:       "External Media",
		Description: "Plug in a USB drive and format it for cross-platform compatibility.",
		Objectives: []string{
			"Insert the USB Drive",
			"Create a partition filling the whole drive",
			"Format it as FAT32 or exFAT",
		},
		Requires: partition.RemovableDiskID,
		validate: func(disks []partition.Disk) bool {
			usb, ok := findDisk(disks, partition.RemovableDiskID)
			if !ok {
				return false
			}
			for _, seg := range usb.Segments {
				if !seg.Unallocated() && (seg.FileSystem == partition.FSFAT32 || seg.FileSystem == partition.FSExFAT) {
					return true
				}
			}
			return false
		},
	},
}

// All returns every mission in order.
func All() []Mission {
	out := make([]Mission, len(missions))
	copy(out, missions)
	for i := range out {
		out[i].Objectives = append([]string(nil), missions[i].Objectives...)
	}
	return out
}

// Get returns the mission with the given id.
func Get(id int) (Mission, error) {
	for _, m := range All() {
		if m.ID == id {
			return m, nil
		}
	}
	return Mission{}, fmt.Errorf("%w: %d", ErrMissionNotFound, id)
}

func findDisk(disks []partition.Disk, id string) (partition.Disk, bool) {
	for _, d := range disks {
		if d.ID == id {
			return d, true
		}
	}
	return partition.Disk{}, false
}
