package partition

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultMinSegmentMB is the smallest segment the engine will leave behind.
const DefaultMinSegmentMB int64 = 1

// Options configures an Engine.
type Options struct {
	// MinSegmentMB is the epsilon below which a remainder is absorbed
	// instead of becoming its own unallocated segment.
	MinSegmentMB int64
	// PermissiveDriveLetters skips the cross-disk uniqueness check.
	PermissiveDriveLetters bool
	// NewID generates segment ids. Defaults to random UUIDs.
	NewID func() string
}

// Engine owns the disk layouts and applies partition operations to them.
// Every operation validates first and then swaps in a freshly built segment
// slice, so a failed call leaves the state untouched and callers never see a
// half-applied layout. Engine is not safe for concurrent use.
type Engine struct {
	opts     Options
	disks    []Disk
	selected string
}

// NewEngine creates an engine holding the initial disk layout.
func NewEngine(opts Options) *Engine {
	if opts.MinSegmentMB <= 0 {
		opts.MinSegmentMB = DefaultMinSegmentMB
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	e := &Engine{opts: opts}
	e.Reset()
	return e
}

// Options returns the effective engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Reset restores the initial single-disk layout and clears the selection.
func (e *Engine) Reset() {
	e.disks = []Disk{NewInitialDisk(e.opts.NewID)}
	e.selected = ""
}

// Disks returns a deep copy of every disk.
func (e *Engine) Disks() []Disk {
	out := make([]Disk, len(e.disks))
	for i, d := range e.disks {
		out[i] = d.clone()
	}
	return out
}

// Disk returns a copy of the disk with the given id.
func (e *Engine) Disk(diskID string) (Disk, error) {
	di, err := e.diskIndex(diskID)
	if err != nil {
		return Disk{}, err
	}
	return e.disks[di].clone(), nil
}

// Segment returns a copy of one segment.
func (e *Engine) Segment(diskID, segmentID string) (Segment, error) {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return Segment{}, err
	}
	return e.disks[di].Segments[si], nil
}

// Select marks a segment as the current UI selection. An empty id clears it.
func (e *Engine) Select(diskID, segmentID string) error {
	if segmentID == "" {
		e.selected = ""
		return nil
	}
	if _, _, err := e.locate(diskID, segmentID); err != nil {
		return err
	}
	e.selected = segmentID
	return nil
}

// Selected returns the selected segment id, if any.
func (e *Engine) Selected() string {
	return e.selected
}

// AddRemovableDisk attaches the empty removable disk.
func (e *Engine) AddRemovableDisk() (Disk, error) {
	if _, err := e.diskIndex(RemovableDiskID); err == nil {
		return Disk{}, fmt.Errorf("%w: %s", ErrDiskExists, RemovableDiskID)
	}
	disk := NewRemovableDisk(e.opts.NewID)
	disks := append(e.Disks(), disk)
	e.disks = disks
	return disk.clone(), nil
}

// CreatePartition turns all or part of an unallocated segment into a new
// primary partition placed at the start of that space.
func (e *Engine) CreatePartition(diskID, segmentID string, sizeMB int64, letter, label string, fs FileSystem) (Segment, error) {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return Segment{}, err
	}
	target := e.disks[di].Segments[si]
	if !target.Unallocated() {
		return Segment{}, fmt.Errorf("%w: segment %s is not unallocated", ErrInvalidTarget, segmentID)
	}
	if sizeMB <= 0 || sizeMB > target.SizeMB {
		return Segment{}, fmt.Errorf("%w: size %d MB outside 1..%d MB", ErrInvalidTarget, sizeMB, target.SizeMB)
	}
	if sizeMB < e.opts.MinSegmentMB {
		return Segment{}, fmt.Errorf("%w: size %d MB below minimum %d MB", ErrInvalidTarget, sizeMB, e.opts.MinSegmentMB)
	}
	if fs == "" {
		fs = FSNTFS
	}
	if !isVolumeFileSystem(fs) {
		return Segment{}, fmt.Errorf("%w: %s", ErrInvalidFileSystem, fs)
	}
	letter, err = e.checkDriveLetter(letter, "")
	if err != nil {
		return Segment{}, err
	}
	if label == "" {
		label = "New Volume"
	}

	remainder := target.SizeMB - sizeMB
	if remainder > 0 && remainder < e.opts.MinSegmentMB {
		sizeMB += remainder
		remainder = 0
	}

	created := Segment{
		ID:          e.opts.NewID(),
		Kind:        KindPrimary,
		FileSystem:  fs,
		Label:       label,
		DriveLetter: letter,
		SizeMB:      sizeMB,
	}

	old := e.disks[di].Segments
	segments := make([]Segment, 0, len(old)+1)
	segments = append(segments, old[:si]...)
	segments = append(segments, created)
	if remainder > 0 {
		segments = append(segments, unallocated(e.opts.NewID(), remainder))
	}
	segments = append(segments, old[si+1:]...)

	e.commit(di, segments)
	return created, nil
}

// DeletePartition returns a partition to unallocated space and merges it
// with any free neighbors.
func (e *Engine) DeletePartition(diskID, segmentID string) error {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return err
	}
	target := e.disks[di].Segments[si]
	if target.Protected() {
		return fmt.Errorf("%w: cannot delete %s", ErrProtectedSegment, target.DisplayName())
	}
	if target.Unallocated() {
		return fmt.Errorf("%w: segment %s is already unallocated", ErrInvalidTarget, segmentID)
	}

	segments := append([]Segment(nil), e.disks[di].Segments...)
	segments[si] = unallocated(target.ID, target.SizeMB)

	e.commit(di, MergeUnallocated(segments))
	if e.selected == segmentID {
		e.selected = ""
	}
	return nil
}

// ShrinkPartition releases amountMB from the end of a partition as
// unallocated space.
func (e *Engine) ShrinkPartition(diskID, segmentID string, amountMB int64) error {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return err
	}
	target := e.disks[di].Segments[si]
	if target.Protected() {
		return fmt.Errorf("%w: cannot shrink %s", ErrProtectedSegment, target.DisplayName())
	}
	if target.Unallocated() {
		return fmt.Errorf("%w: segment %s is unallocated", ErrInvalidTarget, segmentID)
	}
	if amountMB <= 0 || amountMB >= target.SizeMB {
		return fmt.Errorf("%w: %d MB must be between 1 and %d MB", ErrInvalidShrinkAmount, amountMB, target.SizeMB-1)
	}
	if amountMB < e.opts.MinSegmentMB || target.SizeMB-amountMB < e.opts.MinSegmentMB {
		return fmt.Errorf("%w: %d MB leaves a segment below %d MB", ErrInvalidShrinkAmount, amountMB, e.opts.MinSegmentMB)
	}

	old := e.disks[di].Segments
	segments := make([]Segment, 0, len(old)+1)
	segments = append(segments, old[:si]...)

	shrunk := target
	shrunk.SizeMB -= amountMB
	segments = append(segments, shrunk)

	freed := unallocated(e.opts.NewID(), amountMB)
	rest := old[si+1:]
	if len(rest) > 0 && rest[0].Unallocated() {
		freed.SizeMB += rest[0].SizeMB
		rest = rest[1:]
	}
	segments = append(segments, freed)
	segments = append(segments, rest...)

	e.commit(di, segments)
	return nil
}

// ExtendPartition grows a partition into the unallocated segment right after it.
func (e *Engine) ExtendPartition(diskID, segmentID string, amountMB int64) error {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return err
	}
	old := e.disks[di].Segments
	target := old[si]
	if target.Unallocated() {
		return fmt.Errorf("%w: segment %s is unallocated", ErrInvalidTarget, segmentID)
	}
	if target.Kind == KindSystem {
		return fmt.Errorf("%w: cannot extend %s", ErrProtectedSegment, target.DisplayName())
	}
	if amountMB <= 0 {
		return fmt.Errorf("%w: %d MB", ErrInvalidExtendAmount, amountMB)
	}
	if si+1 >= len(old) || !old[si+1].Unallocated() {
		return fmt.Errorf("%w: nothing free after %s", ErrNoAdjacentFreeSpace, target.DisplayName())
	}
	next := old[si+1]
	if next.SizeMB < amountMB {
		return fmt.Errorf("%w: requested %d MB, %d MB available", ErrInsufficientFreeSpace, amountMB, next.SizeMB)
	}

	segments := make([]Segment, 0, len(old))
	segments = append(segments, old[:si]...)

	grown := target
	grown.SizeMB += amountMB
	remaining := next.SizeMB - amountMB
	if remaining > 0 && remaining < e.opts.MinSegmentMB {
		grown.SizeMB += remaining
		remaining = 0
	}
	segments = append(segments, grown)
	if remaining > 0 {
		next.SizeMB = remaining
		segments = append(segments, next)
	}
	segments = append(segments, old[si+2:]...)

	e.commit(di, segments)
	return nil
}

// FormatPartition sets the label and file system of a partition.
func (e *Engine) FormatPartition(diskID, segmentID, label string, fs FileSystem) error {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return err
	}
	target := e.disks[di].Segments[si]
	if target.Unallocated() {
		return fmt.Errorf("%w: segment %s is unallocated", ErrInvalidTarget, segmentID)
	}
	if !isVolumeFileSystem(fs) {
		return fmt.Errorf("%w: %s", ErrInvalidFileSystem, fs)
	}

	segments := append([]Segment(nil), e.disks[di].Segments...)
	segments[si].Label = label
	segments[si].FileSystem = fs

	e.commit(di, segments)
	return nil
}

// ChangeDriveLetter assigns, replaces or, with an empty letter, removes the
// drive letter of a partition.
func (e *Engine) ChangeDriveLetter(diskID, segmentID, letter string) error {
	di, si, err := e.locate(diskID, segmentID)
	if err != nil {
		return err
	}
	target := e.disks[di].Segments[si]
	if target.Unallocated() {
		return fmt.Errorf("%w: segment %s is unallocated", ErrInvalidTarget, segmentID)
	}
	letter, err = e.checkDriveLetter(letter, segmentID)
	if err != nil {
		return err
	}

	segments := append([]Segment(nil), e.disks[di].Segments...)
	segments[si].DriveLetter = letter

	e.commit(di, segments)
	return nil
}

// Snapshot captures the full engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{Disks: e.Disks(), Selected: e.selected}
}

// Restore replaces the engine state with a snapshot after validating it.
func (e *Engine) Restore(snap Snapshot) error {
	if len(snap.Disks) == 0 {
		return fmt.Errorf("%w: snapshot has no disks", ErrInvalidLayout)
	}
	if !e.opts.PermissiveDriveLetters {
		if err := ValidateAll(snap.Disks); err != nil {
			return err
		}
	} else {
		for _, d := range snap.Disks {
			if err := Validate(d); err != nil {
				return err
			}
		}
	}

	disks := make([]Disk, len(snap.Disks))
	for i, d := range snap.Disks {
		disks[i] = d.clone()
	}
	e.disks = disks
	e.selected = ""
	if snap.Selected != "" {
		for _, d := range disks {
			if d.IndexOf(snap.Selected) >= 0 {
				e.selected = snap.Selected
				break
			}
		}
	}
	return nil
}

// commit swaps in a new segment slice for one disk.
func (e *Engine) commit(diskIdx int, segments []Segment) {
	disks := make([]Disk, len(e.disks))
	copy(disks, e.disks)
	disks[diskIdx].Segments = segments
	e.disks = disks
}

func (e *Engine) diskIndex(diskID string) (int, error) {
	for i, d := range e.disks {
		if d.ID == diskID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrDiskNotFound, diskID)
}

func (e *Engine) locate(diskID, segmentID string) (int, int, error) {
	di, err := e.diskIndex(diskID)
	if err != nil {
		return -1, -1, err
	}
	si := e.disks[di].IndexOf(segmentID)
	if si < 0 {
		return -1, -1, fmt.Errorf("%w: %s on %s", ErrSegmentNotFound, segmentID, diskID)
	}
	return di, si, nil
}

// checkDriveLetter normalizes letter and, in strict mode, rejects it when a
// segment other than self already holds it on any disk.
func (e *Engine) checkDriveLetter(letter, self string) (string, error) {
	letter, err := normalizeDriveLetter(letter)
	if err != nil || letter == "" {
		return letter, err
	}
	if e.opts.PermissiveDriveLetters {
		return letter, nil
	}
	for _, d := range e.disks {
		for _, seg := range d.Segments {
			if seg.ID != self && !seg.Unallocated() && seg.DriveLetter == letter {
				return "", fmt.Errorf("%w: %s: held by %s on %s", ErrDuplicateDriveLetter, letter, seg.DisplayName(), d.Name)
			}
		}
	}
	return letter, nil
}

// UsedDriveLetters returns every drive letter held by a partition.
func (e *Engine) UsedDriveLetters() map[string]bool {
	used := make(map[string]bool)
	for _, d := range e.disks {
		for _, seg := range d.Segments {
			if seg.DriveLetter != "" && !seg.Unallocated() {
				used[seg.DriveLetter] = true
			}
		}
	}
	return used
}
