package mission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"disksim/pkg/kvstore"
)

// HistoryKey is the store key holding the attempt log.
const HistoryKey = "disk-sim-history"

// Entry records one mission check.
type Entry struct {
	MissionID int       `json:"mission_id"`
	Success   bool      `json:"success"`
	Attempts  int       `json:"attempts"`
	At        time.Time `json:"at"`
}

// History is the append-only log of mission checks kept in a key-value store.
type History struct {
	store kvstore.Store
	mu    sync.Mutex
	now   func() time.Time
}

// NewHistory returns a history persisted in store.
func NewHistory(store kvstore.Store) *History {
	return &History{store: store, now: time.Now}
}

// Entries returns every recorded check, oldest first. A corrupt log reads as empty.
func (h *History) Entries(ctx context.Context) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

// Record appends the outcome of a check and returns the stored entry.
// Attempts counts every check of the same mission so far, this one included.
func (h *History) Record(ctx context.Context, missionID int, success bool) (Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load(ctx)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{MissionID: missionID, Success: success, Attempts: 1, At: h.now().UTC()}
	for _, e := range entries {
		if e.MissionID == missionID {
			entry.Attempts++
		}
	}
	entries = append(entries, entry)

	if err := h.save(ctx, entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Completed returns the ids of missions with at least one successful check.
func (h *History) Completed(ctx context.Context) (map[int]bool, error) {
	entries, err := h.Entries(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[int]bool)
	for _, e := range entries {
		if e.Success {
			done[e.MissionID] = true
		}
	}
	return done, nil
}

// Current returns the first mission not yet completed, or 0 when all are done.
func (h *History) Current(ctx context.Context) (int, error) {
	done, err := h.Completed(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range missions {
		if !done[m.ID] {
			return m.ID, nil
		}
	}
	return 0, nil
}

// Reset clears the log.
func (h *History) Reset(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Delete(ctx, HistoryKey); err != nil {
		return fmt.Errorf("failed to reset mission history: %w", err)
	}
	return nil
}

// ResetMission drops every entry of one mission and keeps the rest.
func (h *History) ResetMission(ctx context.Context, missionID int) error {
	if _, err := Get(missionID); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.MissionID != missionID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return h.save(ctx, kept)
}

func (h *History) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode mission history: %w", err)
	}
	if err := h.store.Set(ctx, HistoryKey, string(data)); err != nil {
		return fmt.Errorf("failed to save mission history: %w", err)
	}
	return nil
}

func (h *History) load(ctx context.Context) ([]Entry, error) {
	raw, err := h.store.Get(ctx, HistoryKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mission history: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}
