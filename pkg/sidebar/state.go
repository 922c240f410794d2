package sidebar

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"disksim/pkg/catalog"
	"disksim/pkg/kvstore"
)

// DefaultKey is the store key holding the expanded module id.
const DefaultKey = "sidebar.expanded-module"

// State tracks which module, if any, is expanded in the course sidebar.
// At most one module is open at a time.
type State struct {
	store kvstore.Store
	key   string
}

// New returns a sidebar state persisted in store under key.
// An empty key selects DefaultKey.
func New(store kvstore.Store, key string) *State {
	if key == "" {
		key = DefaultKey
	}
	return &State{store: store, key: key}
}

// Expanded returns the open module id. ok is false when every module is collapsed.
func (s *State) Expanded(ctx context.Context) (int, bool, error) {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read sidebar state: %w", err)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		// Unreadable state collapses the sidebar.
		return 0, false, nil
	}
	return id, true, nil
}

// Toggle opens moduleID, or collapses it when it is already open.
// It reports whether the module is open afterwards.
func (s *State) Toggle(ctx context.Context, moduleID int) (bool, error) {
	current, ok, err := s.Expanded(ctx)
	if err != nil {
		return false, err
	}
	if ok && current == moduleID {
		return false, s.Collapse(ctx)
	}
	return true, s.expand(ctx, moduleID)
}

// SetOpen opens moduleID, or closes it when open is false. Closing a module
// that is not the open one leaves the state alone, so repeating a call has no
// further effect.
func (s *State) SetOpen(ctx context.Context, moduleID int, open bool) error {
	if open {
		return s.expand(ctx, moduleID)
	}
	current, ok, err := s.Expanded(ctx)
	if err != nil {
		return err
	}
	if ok && current == moduleID {
		return s.Collapse(ctx)
	}
	return nil
}

// SyncFromPath opens the module a URL path points into. Paths outside any
// module leave the state alone.
func (s *State) SyncFromPath(ctx context.Context, path string) (int, bool, error) {
	id, ok := catalog.ModuleIDFromPath(path)
	if !ok {
		return s.Expanded(ctx)
	}
	if err := s.expand(ctx, id); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Collapse closes every module.
func (s *State) Collapse(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to collapse sidebar: %w", err)
	}
	return nil
}

func (s *State) expand(ctx context.Context, moduleID int) error {
	if moduleID <= 0 {
		return fmt.Errorf("%w: %d", catalog.ErrModuleNotFound, moduleID)
	}
	if err := s.store.Set(ctx, s.key, strconv.Itoa(moduleID)); err != nil {
		return fmt.Errorf("failed to save sidebar state: %w", err)
	}
	return nil
}
