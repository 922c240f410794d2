package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"disksim/pkg/kvstore"
	"disksim/pkg/log"
	"disksim/pkg/metrics"
	"disksim/pkg/mission"
	"disksim/pkg/partition"
)

// StateKey is the store key holding the persisted engine snapshot.
const StateKey = "simulator-store"

// Service is the front door every surface uses to drive the partition engine.
// It serializes access, persists each successful change, and records metrics
// and log lines for every operation outcome.
type Service struct {
	mu        sync.Mutex
	engine    *partition.Engine
	store     kvstore.Store
	history   *mission.History
	published map[string]bool
}

// New creates a service over a fresh engine. Call Load to pick up saved state.
func New(store kvstore.Store, opts partition.Options) *Service {
	s := &Service{
		engine:    partition.NewEngine(opts),
		store:     store,
		history:   mission.NewHistory(store),
		published: make(map[string]bool),
	}
	s.publishLayoutLocked()
	return s
}

// Load restores the last saved snapshot. Missing state keeps the initial
// layout. Unreadable or invalid state is logged and replaced.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, StateKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load simulator state: %w", err)
	}

	var snap partition.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Warn().Err(err).Msg("Discarding unreadable simulator state")
		return s.resetLocked(ctx)
	}
	if err := s.engine.Restore(snap); err != nil {
		log.Warn().Err(err).Msg("Discarding invalid simulator state")
		return s.resetLocked(ctx)
	}

	s.publishLayoutLocked()
	log.Debug().Int("disks", len(snap.Disks)).Msg("Simulator state loaded")
	return nil
}

// Disks returns a copy of every disk.
func (s *Service) Disks() []partition.Disk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Disks()
}

// Disk returns a copy of one disk.
func (s *Service) Disk(diskID string) (partition.Disk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Disk(diskID)
}

// Segment returns a copy of one segment.
func (s *Service) Segment(diskID, segmentID string) (partition.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Segment(diskID, segmentID)
}

// Options returns the engine configuration.
func (s *Service) Options() partition.Options {
	return s.engine.Options()
}

// UsedDriveLetters returns every drive letter in use.
func (s *Service) UsedDriveLetters() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.UsedDriveLetters()
}

// CreateRequest holds the inputs of a create operation.
type CreateRequest struct {
	DiskID      string               `json:"disk_id"`
	SegmentID   string               `json:"segment_id"`
	SizeMB      int64                `json:"size_mb"`
	DriveLetter string               `json:"drive_letter"`
	Label       string               `json:"label"`
	FileSystem  partition.FileSystem `json:"file_system"`
}

// CreatePartition carves a new partition out of unallocated space.
func (s *Service) CreatePartition(ctx context.Context, req CreateRequest) (partition.Segment, error) {
	var created partition.Segment
	err := s.apply(ctx, "create", req.DiskID, req.SegmentID, func() error {
		var err error
		created, err = s.engine.CreatePartition(req.DiskID, req.SegmentID, req.SizeMB, req.DriveLetter, req.Label, req.FileSystem)
		return err
	})
	return created, err
}

// DeletePartition turns a partition back into unallocated space.
func (s *Service) DeletePartition(ctx context.Context, diskID, segmentID string) error {
	return s.apply(ctx, "delete", diskID, segmentID, func() error {
		return s.engine.DeletePartition(diskID, segmentID)
	})
}

// ShrinkPartition frees amountMB from the end of a partition.
func (s *Service) ShrinkPartition(ctx context.Context, diskID, segmentID string, amountMB int64) error {
	return s.apply(ctx, "shrink", diskID, segmentID, func() error {
		return s.engine.ShrinkPartition(diskID, segmentID, amountMB)
	})
}

// ExtendPartition grows a partition into the free space after it.
func (s *Service) ExtendPartition(ctx context.Context, diskID, segmentID string, amountMB int64) error {
	return s.apply(ctx, "extend", diskID, segmentID, func() error {
		return s.engine.ExtendPartition(diskID, segmentID, amountMB)
	})
}

// FormatPartition relabels a partition.
func (s *Service) FormatPartition(ctx context.Context, diskID, segmentID, label string, fs partition.FileSystem) error {
	return s.apply(ctx, "format", diskID, segmentID, func() error {
		return s.engine.FormatPartition(diskID, segmentID, label, fs)
	})
}

// ChangeDriveLetter assigns or clears a drive letter.
func (s *Service) ChangeDriveLetter(ctx context.Context, diskID, segmentID, letter string) error {
	return s.apply(ctx, "letter", diskID, segmentID, func() error {
		return s.engine.ChangeDriveLetter(diskID, segmentID, letter)
	})
}

// AddRemovableDisk plugs in the removable disk.
func (s *Service) AddRemovableDisk(ctx context.Context) (partition.Disk, error) {
	var disk partition.Disk
	err := s.apply(ctx, "usb", partition.RemovableDiskID, "", func() error {
		var err error
		disk, err = s.engine.AddRemovableDisk()
		return err
	})
	return disk, err
}

// Reset restores the initial layout.
func (s *Service) Reset(ctx context.Context) error {
	return s.apply(ctx, "reset", "", "", func() error {
		s.engine.Reset()
		return nil
	})
}

// Restore replaces the whole state with a snapshot, typically from an import.
func (s *Service) Restore(ctx context.Context, snap partition.Snapshot) error {
	return s.apply(ctx, "restore", "", "", func() error {
		return s.engine.Restore(snap)
	})
}

// Snapshot returns the current engine state.
func (s *Service) Snapshot() partition.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// Select sets the UI selection. Selection is not persisted on its own.
func (s *Service) Select(diskID, segmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Select(diskID, segmentID)
}

// Selected returns the selected segment id.
func (s *Service) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Selected()
}

// apply runs fn under the lock, persists the result, and rolls the engine
// back if the snapshot cannot be saved.
func (s *Service) apply(ctx context.Context, operation, diskID, segmentID string, fn func() error) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.engine.Snapshot()
	err := fn()
	if err == nil {
		if perr := s.persistLocked(ctx); perr != nil {
			metrics.PersistFailures.Inc()
			if rerr := s.engine.Restore(before); rerr != nil {
				log.Error().Err(rerr).Msg("Failed to roll back after persist failure")
			}
			err = perr
		}
	}

	result := "ok"
	if err != nil {
		result = partition.Code(err)
	}
	metrics.ObserveOperation(operation, result, time.Since(start))
	s.publishLayoutLocked()

	if err != nil {
		log.Info().
			Str("operation", operation).
			Str("disk", diskID).
			Str("segment", segmentID).
			Str("result", result).
			Err(err).
			Msg("Operation rejected")
		return err
	}

	log.Info().
		Str("operation", operation).
		Str("disk", diskID).
		Str("segment", segmentID).
		Dur("elapsed", time.Since(start)).
		Msg("Operation applied")
	return nil
}

func (s *Service) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.engine.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode simulator state: %w", err)
	}
	if err := s.store.Set(ctx, StateKey, string(data)); err != nil {
		return fmt.Errorf("failed to save simulator state: %w", err)
	}
	return nil
}

func (s *Service) resetLocked(ctx context.Context) error {
	s.engine.Reset()
	s.publishLayoutLocked()
	return s.persistLocked(ctx)
}

func (s *Service) publishLayoutLocked() {
	current := make(map[string]bool)
	for _, d := range s.engine.Disks() {
		metrics.SetDiskLayout(d.ID, len(d.Segments), d.FreeMB())
		current[d.ID] = true
	}
	for id := range s.published {
		if !current[id] {
			metrics.ForgetDisk(id)
		}
	}
	s.published = current
}

// MissionStatus pairs a mission with its completion state.
type MissionStatus struct {
	mission.Mission
	Completed bool `json:"completed"`
}

// Missions lists every mission with its completion flag plus the current mission id.
func (s *Service) Missions(ctx context.Context) ([]MissionStatus, int, error) {
	done, err := s.history.Completed(ctx)
	if err != nil {
		return nil, 0, err
	}
	current, err := s.history.Current(ctx)
	if err != nil {
		return nil, 0, err
	}
	var out []MissionStatus
	for _, m := range mission.All() {
		out = append(out, MissionStatus{Mission: m, Completed: done[m.ID]})
	}
	return out, current, nil
}

// CheckMission validates a mission against the current disks and records the attempt.
// A missing requirement is reported without being recorded.
func (s *Service) CheckMission(ctx context.Context, missionID int) (mission.Entry, error) {
	m, err := mission.Get(missionID)
	if err != nil {
		return mission.Entry{}, err
	}

	success, err := m.Validate(s.Disks())
	if err != nil {
		log.Info().Int("mission", missionID).Err(err).Msg("Mission check blocked")
		return mission.Entry{}, err
	}

	entry, err := s.history.Record(ctx, missionID, success)
	if err != nil {
		return mission.Entry{}, err
	}
	metrics.MissionChecks.WithLabelValues(strconv.Itoa(missionID), strconv.FormatBool(success)).Inc()
	log.Info().Int("mission", missionID).Bool("success", success).Int("attempts", entry.Attempts).Msg("Mission checked")
	return entry, nil
}

// ResetMission clears the history of one mission.
func (s *Service) ResetMission(ctx context.Context, missionID int) error {
	if err := s.history.ResetMission(ctx, missionID); err != nil {
		return err
	}
	log.Info().Int("mission", missionID).Msg("Mission progress reset")
	return nil
}

// ResetMissions clears the mission history.
func (s *Service) ResetMissions(ctx context.Context) error {
	return s.history.Reset(ctx)
}
