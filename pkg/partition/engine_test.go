package partition

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"
)

// EngineTestSuite tests the partition Engine.
type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("seg-%d", n)
	}
}

// SetupTest runs before each test.
func (s *EngineTestSuite) SetupTest() {
	s.engine = NewEngine(Options{NewID: sequentialIDs()})
}

func (s *EngineTestSuite) disk(diskID string) Disk {
	d, err := s.engine.Disk(diskID)
	s.Require().NoError(err)
	return d
}

func (s *EngineTestSuite) seg(diskID string, idx int) Segment {
	d := s.disk(diskID)
	s.Require().Less(idx, len(d.Segments))
	return d.Segments[idx]
}

func (s *EngineTestSuite) sizes(diskID string) []int64 {
	d := s.disk(diskID)
	out := make([]int64, len(d.Segments))
	for i, seg := range d.Segments {
		out[i] = seg.SizeMB
	}
	return out
}

func (s *EngineTestSuite) kinds(diskID string) []Kind {
	d := s.disk(diskID)
	out := make([]Kind, len(d.Segments))
	for i, seg := range d.Segments {
		out[i] = seg.Kind
	}
	return out
}

func (s *EngineTestSuite) requireValid() {
	s.Require().NoError(ValidateAll(s.engine.Disks()))
}

// create carves a partition from the segment at idx on disk-0.
func (s *EngineTestSuite) create(idx int, sizeMB int64, letter string) Segment {
	created, err := s.engine.CreatePartition(InitialDiskID, s.seg(InitialDiskID, idx).ID, sizeMB, letter, "Data", FSNTFS)
	s.Require().NoError(err)
	return created
}

// TestInitialLayout tests the layout of a fresh engine.
func (s *EngineTestSuite) TestInitialLayout() {
	disks := s.engine.Disks()
	s.Require().Len(disks, 1)
	s.Equal("Disk 0", disks[0].Name)
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
	s.Equal([]Kind{KindSystem, KindPrimary, KindUnallocated}, s.kinds(InitialDiskID))

	reserved := s.seg(InitialDiskID, 0)
	s.True(reserved.IsSystem)
	s.True(reserved.IsBoot)

	windows := s.seg(InitialDiskID, 1)
	s.Equal("C", windows.DriveLetter)
	s.True(windows.IsSystem)
	s.False(windows.IsBoot)

	s.requireValid()
}

// TestCreatePartition tests splitting the free space.
func (s *EngineTestSuite) TestCreatePartition() {
	created := s.create(2, 100_000, "d")

	s.Equal(KindPrimary, created.Kind)
	s.Equal("D", created.DriveLetter)
	s.Equal(FSNTFS, created.FileSystem)
	s.Equal("Data", created.Label)
	s.Equal([]int64{500, 204_800, 100_000, 694_700}, s.sizes(InitialDiskID))
	s.Equal([]Kind{KindSystem, KindPrimary, KindPrimary, KindUnallocated}, s.kinds(InitialDiskID))
	s.requireValid()
}

// TestCreateShrinkScenario tests create then shrink on a 794,200 MB free segment.
func (s *EngineTestSuite) TestCreateShrinkScenario() {
	s.Require().NoError(s.engine.Restore(Snapshot{Disks: []Disk{{
		ID:          InitialDiskID,
		Name:        "Disk 0",
		Media:       MediaHDD,
		TotalSizeMB: 1_000_000,
		Online:      true,
		Segments: []Segment{
			{ID: "sys", Kind: KindSystem, FileSystem: FSNTFS, Label: "System Reserved", SizeMB: 500, IsSystem: true, IsBoot: true},
			{ID: "win", Kind: KindPrimary, FileSystem: FSNTFS, Label: "Windows", DriveLetter: "C", SizeMB: 205_300, IsSystem: true},
			{ID: "free", Kind: KindUnallocated, FileSystem: FSUnformatted, Label: "Unallocated", SizeMB: 794_200},
		},
	}}}))

	created, err := s.engine.CreatePartition(InitialDiskID, "free", 100_000, "", "", FSNTFS)
	s.Require().NoError(err)
	s.Len(s.disk(InitialDiskID).Segments, 4)
	s.Equal([]int64{500, 205_300, 100_000, 694_200}, s.sizes(InitialDiskID))
	s.Equal("New Volume", created.Label)

	s.Require().NoError(s.engine.ShrinkPartition(InitialDiskID, created.ID, 20_000))
	s.Equal([]int64{500, 205_300, 80_000, 714_200}, s.sizes(InitialDiskID))
	s.Equal([]Kind{KindSystem, KindPrimary, KindPrimary, KindUnallocated}, s.kinds(InitialDiskID))
	s.requireValid()
}

// TestCreateWholeSegment tests that no remainder is left when all space is used.
func (s *EngineTestSuite) TestCreateWholeSegment() {
	s.create(2, 794_700, "")
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
	s.Equal(KindPrimary, s.seg(InitialDiskID, 2).Kind)
	s.requireValid()
}

// TestCreateRejections tests invalid create requests.
func (s *EngineTestSuite) TestCreateRejections() {
	free := s.seg(InitialDiskID, 2).ID
	windows := s.seg(InitialDiskID, 1).ID

	testCases := []struct {
		name    string
		segment string
		size    int64
		letter  string
		fs      FileSystem
		want    error
	}{
		{"partition target", windows, 100, "", FSNTFS, ErrInvalidTarget},
		{"zero size", free, 0, "", FSNTFS, ErrInvalidTarget},
		{"negative size", free, -5, "", FSNTFS, ErrInvalidTarget},
		{"larger than free", free, 794_701, "", FSNTFS, ErrInvalidTarget},
		{"unformatted", free, 100, "", FSUnformatted, ErrInvalidFileSystem},
		{"unknown fs", free, 100, "", FileSystem("ext4"), ErrInvalidFileSystem},
		{"letter in use", free, 100, "C", FSNTFS, ErrDuplicateDriveLetter},
		{"bad letter", free, 100, "7", FSNTFS, ErrInvalidDriveLetter},
		{"missing segment", "nope", 100, "", FSNTFS, ErrSegmentNotFound},
	}

	before := s.engine.Snapshot()
	for _, tc := range testCases {
		_, err := s.engine.CreatePartition(InitialDiskID, tc.segment, tc.size, tc.letter, "x", tc.fs)
		s.ErrorIs(err, tc.want, tc.name)
		s.Equal(before, s.engine.Snapshot(), tc.name)
	}

	_, err := s.engine.CreatePartition("disk-9", free, 100, "", "x", FSNTFS)
	s.ErrorIs(err, ErrDiskNotFound)
}

// TestCreateAbsorbsSmallRemainder tests the epsilon rule on create.
func (s *EngineTestSuite) TestCreateAbsorbsSmallRemainder() {
	s.engine = NewEngine(Options{MinSegmentMB: 10, NewID: sequentialIDs()})

	created := s.create(2, 794_695, "")
	s.Equal(int64(794_700), created.SizeMB)
	s.Len(s.disk(InitialDiskID).Segments, 3)
	s.requireValid()

	_, err := s.engine.CreatePartition(InitialDiskID, "seg-1", 5, "", "", FSNTFS)
	s.ErrorIs(err, ErrInvalidTarget)
}

// TestDeleteProtected tests that system segments cannot be deleted.
func (s *EngineTestSuite) TestDeleteProtected() {
	before := s.engine.Snapshot()
	for idx := 0; idx < 2; idx++ {
		err := s.engine.DeletePartition(InitialDiskID, s.seg(InitialDiskID, idx).ID)
		s.ErrorIs(err, ErrProtectedSegment)
	}
	s.Equal(before, s.engine.Snapshot())
}

// TestDeleteUnallocated tests that free space cannot be deleted.
func (s *EngineTestSuite) TestDeleteUnallocated() {
	err := s.engine.DeletePartition(InitialDiskID, s.seg(InitialDiskID, 2).ID)
	s.ErrorIs(err, ErrInvalidTarget)
}

// TestDeleteMergesNeighbors tests merging a partition flanked by free space.
func (s *EngineTestSuite) TestDeleteMergesNeighbors() {
	first := s.create(2, 100_000, "D")
	second := s.create(3, 200_000, "E")
	s.Equal([]int64{500, 204_800, 100_000, 200_000, 494_700}, s.sizes(InitialDiskID))

	s.Require().NoError(s.engine.DeletePartition(InitialDiskID, first.ID))
	s.Equal([]Kind{KindSystem, KindPrimary, KindUnallocated, KindPrimary, KindUnallocated}, s.kinds(InitialDiskID))

	freed := s.seg(InitialDiskID, 2)
	s.Equal(first.ID, freed.ID)
	s.Empty(freed.DriveLetter)
	s.Equal(FSUnformatted, freed.FileSystem)
	s.Equal("Unallocated", freed.Label)

	s.Require().NoError(s.engine.DeletePartition(InitialDiskID, second.ID))
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
	s.Equal(first.ID, s.seg(InitialDiskID, 2).ID)
	s.requireValid()

	// Letters are free again.
	s.create(2, 1_000, "D")
}

// TestDeleteClearsSelection tests that deleting the selected segment clears the selection.
func (s *EngineTestSuite) TestDeleteClearsSelection() {
	created := s.create(2, 1_000, "")
	s.Require().NoError(s.engine.Select(InitialDiskID, created.ID))
	s.Equal(created.ID, s.engine.Selected())
	s.Require().NoError(s.engine.DeletePartition(InitialDiskID, created.ID))
	s.Empty(s.engine.Selected())
}

// TestShrinkRejections tests invalid shrink requests.
func (s *EngineTestSuite) TestShrinkRejections() {
	created := s.create(2, 100_000, "")
	free := s.seg(InitialDiskID, 3).ID

	testCases := []struct {
		name    string
		segment string
		amount  int64
		want    error
	}{
		{"system reserved", s.seg(InitialDiskID, 0).ID, 100, ErrProtectedSegment},
		{"windows", s.seg(InitialDiskID, 1).ID, 100, ErrProtectedSegment},
		{"unallocated", free, 100, ErrInvalidTarget},
		{"zero", created.ID, 0, ErrInvalidShrinkAmount},
		{"negative", created.ID, -1, ErrInvalidShrinkAmount},
		{"whole size", created.ID, 100_000, ErrInvalidShrinkAmount},
		{"more than size", created.ID, 100_001, ErrInvalidShrinkAmount},
	}

	before := s.engine.Snapshot()
	for _, tc := range testCases {
		err := s.engine.ShrinkPartition(InitialDiskID, tc.segment, tc.amount)
		s.ErrorIs(err, tc.want, tc.name)
		s.Equal(before, s.engine.Snapshot(), tc.name)
	}
}

// TestShrinkWithoutFreeNeighbor tests inserting fresh free space.
func (s *EngineTestSuite) TestShrinkWithoutFreeNeighbor() {
	created := s.create(2, 794_700, "")
	s.Require().NoError(s.engine.ShrinkPartition(InitialDiskID, created.ID, 1_000))
	s.Equal([]int64{500, 204_800, 793_700, 1_000}, s.sizes(InitialDiskID))
	s.Equal(KindUnallocated, s.seg(InitialDiskID, 3).Kind)
	s.requireValid()
}

// TestShrinkEpsilon tests that shrink respects the minimum segment size.
func (s *EngineTestSuite) TestShrinkEpsilon() {
	s.engine = NewEngine(Options{MinSegmentMB: 10, NewID: sequentialIDs()})
	created := s.create(2, 100, "")

	s.ErrorIs(s.engine.ShrinkPartition(InitialDiskID, created.ID, 5), ErrInvalidShrinkAmount)
	s.ErrorIs(s.engine.ShrinkPartition(InitialDiskID, created.ID, 95), ErrInvalidShrinkAmount)
	s.NoError(s.engine.ShrinkPartition(InitialDiskID, created.ID, 90))
	s.requireValid()
}

// TestExtend tests moving capacity from the following free segment.
func (s *EngineTestSuite) TestExtend() {
	created := s.create(2, 100_000, "")

	s.Require().NoError(s.engine.ExtendPartition(InitialDiskID, created.ID, 50_000))
	s.Equal([]int64{500, 204_800, 150_000, 644_700}, s.sizes(InitialDiskID))

	s.Require().NoError(s.engine.ExtendPartition(InitialDiskID, created.ID, 644_700))
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
	s.requireValid()
}

// TestExtendWindows tests that the system volume can grow.
func (s *EngineTestSuite) TestExtendWindows() {
	windows := s.seg(InitialDiskID, 1)
	s.Require().NoError(s.engine.ExtendPartition(InitialDiskID, windows.ID, 50_000))
	s.Equal(int64(254_800), s.seg(InitialDiskID, 1).SizeMB)
	s.requireValid()
}

// TestExtendRejections tests invalid extend requests.
func (s *EngineTestSuite) TestExtendRejections() {
	first := s.create(2, 100_000, "")
	second := s.create(3, 100_000, "")
	free := s.seg(InitialDiskID, 4)

	testCases := []struct {
		name    string
		segment string
		amount  int64
		want    error
	}{
		{"system reserved", s.seg(InitialDiskID, 0).ID, 10, ErrProtectedSegment},
		{"unallocated", free.ID, 10, ErrInvalidTarget},
		{"zero", second.ID, 0, ErrInvalidExtendAmount},
		{"no free neighbor", first.ID, 10, ErrNoAdjacentFreeSpace},
		{"too much", second.ID, free.SizeMB + 1, ErrInsufficientFreeSpace},
	}

	before := s.engine.Snapshot()
	for _, tc := range testCases {
		err := s.engine.ExtendPartition(InitialDiskID, tc.segment, tc.amount)
		s.ErrorIs(err, tc.want, tc.name)
		s.Equal(before, s.engine.Snapshot(), tc.name)
	}
}

// TestExtendAbsorbsSmallRemainder tests the epsilon rule on extend.
func (s *EngineTestSuite) TestExtendAbsorbsSmallRemainder() {
	s.engine = NewEngine(Options{MinSegmentMB: 10, NewID: sequentialIDs()})
	created := s.create(2, 100_000, "")

	s.Require().NoError(s.engine.ExtendPartition(InitialDiskID, created.ID, 694_695))
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
	s.requireValid()
}

// TestFormat tests relabeling a partition.
func (s *EngineTestSuite) TestFormat() {
	created := s.create(2, 1_000, "E")

	s.Require().NoError(s.engine.FormatPartition(InitialDiskID, created.ID, "Backup", FSExFAT))
	got := s.seg(InitialDiskID, 2)
	s.Equal("Backup", got.Label)
	s.Equal(FSExFAT, got.FileSystem)
	s.Equal(int64(1_000), got.SizeMB)
	s.Equal("E", got.DriveLetter)

	s.ErrorIs(s.engine.FormatPartition(InitialDiskID, s.seg(InitialDiskID, 3).ID, "x", FSNTFS), ErrInvalidTarget)
	s.ErrorIs(s.engine.FormatPartition(InitialDiskID, created.ID, "x", FSUnformatted), ErrInvalidFileSystem)
}

// TestChangeDriveLetter tests drive letter assignment.
func (s *EngineTestSuite) TestChangeDriveLetter() {
	created := s.create(2, 1_000, "D")

	s.Require().NoError(s.engine.ChangeDriveLetter(InitialDiskID, created.ID, "e"))
	s.Equal("E", s.seg(InitialDiskID, 2).DriveLetter)

	s.Require().NoError(s.engine.ChangeDriveLetter(InitialDiskID, created.ID, "E:"))
	s.Equal("E", s.seg(InitialDiskID, 2).DriveLetter)

	s.ErrorIs(s.engine.ChangeDriveLetter(InitialDiskID, created.ID, "C"), ErrDuplicateDriveLetter)
	s.ErrorIs(s.engine.ChangeDriveLetter(InitialDiskID, created.ID, "EF"), ErrInvalidDriveLetter)
	s.ErrorIs(s.engine.ChangeDriveLetter(InitialDiskID, created.ID, "#"), ErrInvalidDriveLetter)
	s.ErrorIs(s.engine.ChangeDriveLetter(InitialDiskID, s.seg(InitialDiskID, 3).ID, "F"), ErrInvalidTarget)

	s.Require().NoError(s.engine.ChangeDriveLetter(InitialDiskID, created.ID, ""))
	s.Empty(s.seg(InitialDiskID, 2).DriveLetter)
	s.False(s.engine.UsedDriveLetters()["E"])
	s.True(s.engine.UsedDriveLetters()["C"])
}

// TestDriveLetterAcrossDisks tests uniqueness spanning several disks.
func (s *EngineTestSuite) TestDriveLetterAcrossDisks() {
	s.create(2, 1_000, "E")
	usb, err := s.engine.AddRemovableDisk()
	s.Require().NoError(err)

	_, err = s.engine.CreatePartition(RemovableDiskID, usb.Segments[0].ID, 8_000, "E", "USB", FSFAT32)
	s.ErrorIs(err, ErrDuplicateDriveLetter)

	_, err = s.engine.CreatePartition(RemovableDiskID, usb.Segments[0].ID, 8_000, "F", "USB", FSFAT32)
	s.NoError(err)
	s.requireValid()
}

// TestPermissiveDriveLetters tests the configurable collision behavior.
func (s *EngineTestSuite) TestPermissiveDriveLetters() {
	s.engine = NewEngine(Options{PermissiveDriveLetters: true, NewID: sequentialIDs()})
	created := s.create(2, 1_000, "C")
	s.Equal("C", created.DriveLetter)
	s.ErrorIs(ValidateAll(s.engine.Disks()), ErrDuplicateDriveLetter)
}

// TestAddRemovableDisk tests attaching the removable disk.
func (s *EngineTestSuite) TestAddRemovableDisk() {
	usb, err := s.engine.AddRemovableDisk()
	s.Require().NoError(err)
	s.Equal(RemovableDiskID, usb.ID)
	s.Equal(MediaSSD, usb.Media)
	s.Equal([]int64{16_384}, s.sizes(RemovableDiskID))

	_, err = s.engine.AddRemovableDisk()
	s.ErrorIs(err, ErrDiskExists)
	s.Len(s.engine.Disks(), 2)
}

// TestReset tests restoring the initial layout.
func (s *EngineTestSuite) TestReset() {
	s.create(2, 1_000, "E")
	_, err := s.engine.AddRemovableDisk()
	s.Require().NoError(err)

	s.engine.Reset()
	s.Len(s.engine.Disks(), 1)
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
}

// TestDisksReturnsCopies tests that callers cannot mutate engine state.
func (s *EngineTestSuite) TestDisksReturnsCopies() {
	disks := s.engine.Disks()
	disks[0].Segments[0].SizeMB = 1
	disks[0].Segments = nil
	s.Equal([]int64{500, 204_800, 794_700}, s.sizes(InitialDiskID))
}

// TestSnapshotRestore tests round-tripping engine state.
func (s *EngineTestSuite) TestSnapshotRestore() {
	created := s.create(2, 1_000, "E")
	s.Require().NoError(s.engine.Select(InitialDiskID, created.ID))
	snap := s.engine.Snapshot()

	s.engine.Reset()
	s.Require().NoError(s.engine.Restore(snap))
	s.Equal(snap, s.engine.Snapshot())
	s.Equal(created.ID, s.engine.Selected())
}

// TestRestoreRejectsBrokenLayouts tests layout validation on restore.
func (s *EngineTestSuite) TestRestoreRejectsBrokenLayouts() {
	good := s.engine.Snapshot()

	short := s.engine.Snapshot()
	short.Disks[0].Segments[2].SizeMB--
	s.ErrorIs(s.engine.Restore(short), ErrInvalidLayout)

	split := s.engine.Snapshot()
	last := split.Disks[0].Segments[2]
	split.Disks[0].Segments[2].SizeMB = 100
	split.Disks[0].Segments = append(split.Disks[0].Segments, unallocated("extra", last.SizeMB-100))
	s.ErrorIs(s.engine.Restore(split), ErrInvalidLayout)

	s.ErrorIs(s.engine.Restore(Snapshot{}), ErrInvalidLayout)
	s.Equal(good, s.engine.Snapshot())
}

// TestRestoreRejectsBadAttributes tests segment attribute validation on restore.
func (s *EngineTestSuite) TestRestoreRejectsBadAttributes() {
	good := s.engine.Snapshot()

	tests := []struct {
		name   string
		mutate func(segs []Segment)
	}{
		{"lowercase letter", func(segs []Segment) { segs[1].DriveLetter = "c" }},
		{"letter with colon", func(segs []Segment) { segs[1].DriveLetter = "C:" }},
		{"non-letter", func(segs []Segment) { segs[1].DriveLetter = "7" }},
		{"unknown kind", func(segs []Segment) { segs[1].Kind = Kind("Bogus") }},
		{"unknown file system", func(segs []Segment) { segs[1].FileSystem = FileSystem("ZFS") }},
		{"unformatted partition", func(segs []Segment) { segs[1].FileSystem = FSUnformatted }},
		{"formatted free space", func(segs []Segment) { segs[2].FileSystem = FSNTFS }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			snap := s.engine.Snapshot()
			tt.mutate(snap.Disks[0].Segments)
			s.ErrorIs(s.engine.Restore(snap), ErrInvalidLayout)
			s.Equal(good, s.engine.Snapshot())
		})
	}
}

// TestRestoredLettersStayUnique tests that a restored letter blocks reuse in any casing.
func (s *EngineTestSuite) TestRestoredLettersStayUnique() {
	data := s.create(2, 100_000, "")
	snap := s.engine.Snapshot()
	snap.Disks[0].Segments[2].DriveLetter = "d"
	s.ErrorIs(s.engine.Restore(snap), ErrInvalidLayout)

	snap.Disks[0].Segments[2].DriveLetter = "D"
	s.Require().NoError(s.engine.Restore(snap))

	other := s.create(3, 1_000, "")
	s.ErrorIs(s.engine.ChangeDriveLetter(InitialDiskID, other.ID, "d"), ErrDuplicateDriveLetter)
	s.ErrorIs(s.engine.ChangeDriveLetter(InitialDiskID, other.ID, "D"), ErrDuplicateDriveLetter)
	s.Equal("D", s.seg(InitialDiskID, 2).DriveLetter)
	s.Equal(data.ID, s.seg(InitialDiskID, 2).ID)
	s.requireValid()
}

// TestSelectUnknown tests selecting a missing segment.
func (s *EngineTestSuite) TestSelectUnknown() {
	s.ErrorIs(s.engine.Select(InitialDiskID, "missing"), ErrSegmentNotFound)
	s.NoError(s.engine.Select(InitialDiskID, ""))
}

// TestRandomOperationsKeepInvariants drives the engine with random operations.
func (s *EngineTestSuite) TestRandomOperationsKeepInvariants() {
	rng := rand.New(rand.NewSource(42))
	_, err := s.engine.AddRemovableDisk()
	s.Require().NoError(err)

	letters := []string{"", "D", "E", "F", "G", "C"}
	for i := 0; i < 3000; i++ {
		disks := s.engine.Disks()
		disk := disks[rng.Intn(len(disks))]
		seg := disk.Segments[rng.Intn(len(disk.Segments))]
		amount := rng.Int63n(seg.SizeMB+2) - 1

		switch rng.Intn(6) {
		case 0:
			_, err = s.engine.CreatePartition(disk.ID, seg.ID, amount, letters[rng.Intn(len(letters))], "r", FSNTFS)
		case 1:
			err = s.engine.DeletePartition(disk.ID, seg.ID)
		case 2:
			err = s.engine.ShrinkPartition(disk.ID, seg.ID, amount)
		case 3:
			err = s.engine.ExtendPartition(disk.ID, seg.ID, rng.Int63n(200_000))
		case 4:
			err = s.engine.FormatPartition(disk.ID, seg.ID, "f", FSFAT32)
		case 5:
			err = s.engine.ChangeDriveLetter(disk.ID, seg.ID, letters[rng.Intn(len(letters))])
		}
		if err != nil {
			s.NotEqual("Internal", Code(err), err.Error())
		}
		s.Require().NoError(ValidateAll(s.engine.Disks()), "step %d", i)
	}
}

// TestMergeUnallocated tests the merge pass.
func (s *EngineTestSuite) TestMergeUnallocated() {
	in := []Segment{
		unallocated("a", 10),
		unallocated("b", 20),
		{ID: "p", Kind: KindPrimary, FileSystem: FSNTFS, SizeMB: 5},
		unallocated("c", 1),
		unallocated("d", 2),
		unallocated("e", 3),
	}
	once := MergeUnallocated(in)
	s.Require().Len(once, 3)
	s.Equal("a", once[0].ID)
	s.Equal(int64(30), once[0].SizeMB)
	s.Equal("c", once[2].ID)
	s.Equal(int64(6), once[2].SizeMB)
	s.Equal(once, MergeUnallocated(once))

	// Input is left alone.
	s.Equal(int64(10), in[0].SizeMB)
	s.Empty(MergeUnallocated(nil))
}

// TestCode tests error kind names.
func (s *EngineTestSuite) TestCode() {
	s.Equal("ProtectedSegment", Code(fmt.Errorf("wrap: %w", ErrProtectedSegment)))
	s.Equal("InsufficientFreeSpace", Code(ErrInsufficientFreeSpace))
	s.Equal("Internal", Code(errors.New("boom")))
	s.Empty(Code(nil))
	s.True(IsNotFound(ErrSegmentNotFound))
	s.False(IsNotFound(ErrInvalidTarget))
}

// TestFormatSize tests size rendering.
func (s *EngineTestSuite) TestFormatSize() {
	s.Equal("500 MB", FormatSize(500))
	s.Equal("200.00 GB", FormatSize(204_800))
	s.Equal("1.00 TB", FormatSize(1024*1024))
}

// TestParseFileSystem tests file-system name parsing.
func (s *EngineTestSuite) TestParseFileSystem() {
	fs, err := ParseFileSystem("exfat")
	s.Require().NoError(err)
	s.Equal(FSExFAT, fs)

	_, err = ParseFileSystem("btrfs")
	s.ErrorIs(err, ErrInvalidFileSystem)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
