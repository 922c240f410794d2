package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"disksim/pkg/partition"
	"disksim/pkg/simulator"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.Bold, color.FgCyan)
	systemColor = color.New(color.FgYellow)
	freeColor   = color.New(color.Faint)
	volumeColor = color.New(color.FgGreen)
)

// printLayout writes a table of every disk and its segments.
func printLayout(w io.Writer, disks []partition.Disk) {
	for i, d := range disks {
		if i > 0 {
			fmt.Fprintln(w)
		}
		headerColor.Fprintf(w, "%s  [%s]  %s, %s free\n", d.Name, d.ID, partition.FormatSize(d.TotalSizeMB), partition.FormatSize(d.FreeMB()))
		fmt.Fprintf(w, "  %-3s %-24s %-12s %-12s %s\n", "#", "Volume", "File System", "Size", "Status")
		for j, seg := range d.Segments {
			line := fmt.Sprintf("  %-3d %-24s %-12s %-12s %s", j+1, seg.DisplayName(), fileSystemLabel(seg), partition.FormatSize(seg.SizeMB), segmentStatus(seg))
			switch {
			case seg.Unallocated():
				freeColor.Fprintln(w, line)
			case seg.Protected():
				systemColor.Fprintln(w, line)
			default:
				volumeColor.Fprintln(w, line)
			}
		}
	}
}

func fileSystemLabel(seg partition.Segment) string {
	if seg.Unallocated() {
		return "-"
	}
	return string(seg.FileSystem)
}

// segmentStatus mirrors the status column of Windows Disk Management.
func segmentStatus(seg partition.Segment) string {
	if seg.Unallocated() {
		return "Unallocated"
	}
	var flags []string
	if seg.IsSystem {
		flags = append(flags, "System")
	}
	if seg.IsBoot {
		flags = append(flags, "Boot")
	}
	if seg.Kind == partition.KindSystem {
		flags = append(flags, "Reserved")
	} else {
		flags = append(flags, "Primary Partition")
	}
	return "Healthy (" + strings.Join(flags, ", ") + ")"
}

// resolveSegment turns a segment id or a 1-based position into a segment id.
func resolveSegment(sim *simulator.Service, diskID, ref string) (string, error) {
	d, err := sim.Disk(diskID)
	if err != nil {
		return "", err
	}
	if d.IndexOf(ref) >= 0 {
		return ref, nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(d.Segments) {
		return "", fmt.Errorf("%w: %q on %s", partition.ErrSegmentNotFound, ref, diskID)
	}
	return d.Segments[n-1].ID, nil
}
