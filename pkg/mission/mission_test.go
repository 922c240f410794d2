package mission

import (
	"context"
	"testing"
	"time"

	"disksim/pkg/kvstore"
	"disksim/pkg/partition"

	"github.com/stretchr/testify/suite"
)

// MissionTestSuite tests mission checks and history.
type MissionTestSuite struct {
	suite.Suite
	ctx     context.Context
	engine  *partition.Engine
	store   *kvstore.MemoryStore
	history *History
}

// SetupTest runs before each test.
func (s *MissionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.engine = partition.NewEngine(partition.Options{})
	s.store = kvstore.NewMemoryStore()
	s.history = NewHistory(s.store)
	s.history.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
}

func (s *MissionTestSuite) check(id int) bool {
	m, err := Get(id)
	s.Require().NoError(err)
	ok, err := m.Validate(s.engine.Disks())
	s.Require().NoError(err)
	return ok
}

func (s *MissionTestSuite) segmentAt(diskID string, idx int) partition.Segment {
	d, err := s.engine.Disk(diskID)
	s.Require().NoError(err)
	return d.Segments[idx]
}

// TestAll tests the mission list.
func (s *MissionTestSuite) TestAll() {
	all := All()
	s.Require().Len(all, 3)
	s.Equal("The New Drive", all[0].Title)
	s.Equal("Space Management", all[1].Title)
	s.Equal("External Media", all[2].Title)

	all[0].Objectives[0] = "changed"
	s.Equal("Initialize Disk 0", All()[0].Objectives[0])

	_, err := Get(9)
	s.ErrorIs(err, ErrMissionNotFound)
}

// TestNewDrive tests the large NTFS volume mission.
func (s *MissionTestSuite) TestNewDrive() {
	s.False(s.check(1))

	windows := s.segmentAt(partition.InitialDiskID, 1)
	s.Require().NoError(s.engine.ExtendPartition(partition.InitialDiskID, windows.ID, 794_700))
	s.True(s.check(1))
}

// TestSpaceManagement tests growing drive C.
func (s *MissionTestSuite) TestSpaceManagement() {
	s.False(s.check(2))

	windows := s.segmentAt(partition.InitialDiskID, 1)
	s.Require().NoError(s.engine.ExtendPartition(partition.InitialDiskID, windows.ID, 45_200))
	s.False(s.check(2))

	s.Require().NoError(s.engine.ExtendPartition(partition.InitialDiskID, windows.ID, 1))
	s.True(s.check(2))
}

// TestExternalMedia tests the removable disk mission.
func (s *MissionTestSuite) TestExternalMedia() {
	m, err := Get(3)
	s.Require().NoError(err)

	_, err = m.Validate(s.engine.Disks())
	s.ErrorIs(err, ErrRequirementMissing)

	usb, err := s.engine.AddRemovableDisk()
	s.Require().NoError(err)
	s.False(s.check(3))

	created, err := s.engine.CreatePartition(partition.RemovableDiskID, usb.Segments[0].ID, usb.TotalSizeMB, "E", "USB", partition.FSNTFS)
	s.Require().NoError(err)
	s.False(s.check(3))

	s.Require().NoError(s.engine.FormatPartition(partition.RemovableDiskID, created.ID, "USB", partition.FSExFAT))
	s.True(s.check(3))
}

// TestHistory tests recording attempts and picking the current mission.
func (s *MissionTestSuite) TestHistory() {
	current, err := s.history.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, current)

	entry, err := s.history.Record(s.ctx, 1, false)
	s.Require().NoError(err)
	s.Equal(1, entry.Attempts)

	entry, err = s.history.Record(s.ctx, 1, true)
	s.Require().NoError(err)
	s.Equal(2, entry.Attempts)
	s.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), entry.At)

	current, err = s.history.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, current)

	_, err = s.history.Record(s.ctx, 3, true)
	s.Require().NoError(err)
	current, err = s.history.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, current)

	_, err = s.history.Record(s.ctx, 2, true)
	s.Require().NoError(err)
	current, err = s.history.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, current)

	entries, err := s.history.Entries(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 4)
	s.Equal(1, entries[0].MissionID)
	s.False(entries[0].Success)

	s.Require().NoError(s.history.Reset(s.ctx))
	entries, err = s.history.Entries(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

// TestResetMission tests clearing the entries of one mission.
func (s *MissionTestSuite) TestResetMission() {
	_, err := s.history.Record(s.ctx, 1, true)
	s.Require().NoError(err)
	_, err = s.history.Record(s.ctx, 2, false)
	s.Require().NoError(err)
	_, err = s.history.Record(s.ctx, 1, true)
	s.Require().NoError(err)

	s.Require().NoError(s.history.ResetMission(s.ctx, 1))
	entries, err := s.history.Entries(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(2, entries[0].MissionID)

	current, err := s.history.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, current)

	entry, err := s.history.Record(s.ctx, 1, false)
	s.Require().NoError(err)
	s.Equal(1, entry.Attempts)

	s.Require().NoError(s.history.ResetMission(s.ctx, 3))
	entries, err = s.history.Entries(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 2)

	s.ErrorIs(s.history.ResetMission(s.ctx, 9), ErrMissionNotFound)
}

// TestCorruptHistory tests that an unreadable log starts over.
func (s *MissionTestSuite) TestCorruptHistory() {
	s.Require().NoError(s.store.Set(s.ctx, HistoryKey, "{not json"))
	entries, err := s.history.Entries(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)

	entry, err := s.history.Record(s.ctx, 2, true)
	s.Require().NoError(err)
	s.Equal(1, entry.Attempts)
}

func TestMissionTestSuite(t *testing.T) {
	suite.Run(t, new(MissionTestSuite))
}
