package sidebar

import (
	"context"
	"path/filepath"
	"testing"

	"disksim/pkg/catalog"
	"disksim/pkg/kvstore"

	"github.com/stretchr/testify/suite"
)

// StateTestSuite tests sidebar expansion state.
type StateTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *kvstore.MemoryStore
	state *State
}

// SetupTest runs before each test.
func (s *StateTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = kvstore.NewMemoryStore()
	s.state = New(s.store, "")
}

// TestInitiallyCollapsed tests the empty state.
func (s *StateTestSuite) TestInitiallyCollapsed() {
	_, ok, err := s.state.Expanded(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
}

// TestToggle tests opening, switching and closing modules.
func (s *StateTestSuite) TestToggle() {
	open, err := s.state.Toggle(s.ctx, 3)
	s.Require().NoError(err)
	s.True(open)

	id, ok, err := s.state.Expanded(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(3, id)

	open, err = s.state.Toggle(s.ctx, 5)
	s.Require().NoError(err)
	s.True(open)
	id, _, _ = s.state.Expanded(s.ctx)
	s.Equal(5, id)

	open, err = s.state.Toggle(s.ctx, 5)
	s.Require().NoError(err)
	s.False(open)
	_, ok, _ = s.state.Expanded(s.ctx)
	s.False(ok)
}

// TestToggleInvalidModule tests rejecting non-positive ids.
func (s *StateTestSuite) TestToggleInvalidModule() {
	_, err := s.state.Toggle(s.ctx, 0)
	s.ErrorIs(err, catalog.ErrModuleNotFound)
}

// TestSetOpen tests that explicit open and close calls are repeatable.
func (s *StateTestSuite) TestSetOpen() {
	for range 2 {
		s.Require().NoError(s.state.SetOpen(s.ctx, 4, true))
		id, ok, err := s.state.Expanded(s.ctx)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(4, id)
	}

	s.Require().NoError(s.state.SetOpen(s.ctx, 2, false))
	id, ok, err := s.state.Expanded(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(4, id)

	for range 2 {
		s.Require().NoError(s.state.SetOpen(s.ctx, 4, false))
		_, ok, err = s.state.Expanded(s.ctx)
		s.Require().NoError(err)
		s.False(ok)
	}

	s.ErrorIs(s.state.SetOpen(s.ctx, 0, true), catalog.ErrModuleNotFound)
}

// TestSyncFromPath tests following the current URL.
func (s *StateTestSuite) TestSyncFromPath() {
	id, ok, err := s.state.SyncFromPath(s.ctx, "/module/7/topic/2")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(7, id)

	id, ok, err = s.state.SyncFromPath(s.ctx, "/dashboard")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(7, id)
}

// TestCorruptValue tests that garbage in the store reads as collapsed.
func (s *StateTestSuite) TestCorruptValue() {
	s.Require().NoError(s.store.Set(s.ctx, DefaultKey, "banana"))
	_, ok, err := s.state.Expanded(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
}

// TestPersistsAcrossReopen tests state kept in SQLite.
func (s *StateTestSuite) TestPersistsAcrossReopen() {
	dbPath := filepath.Join(s.T().TempDir(), "sidebar.db")

	store, err := kvstore.NewSQLiteStore(dbPath)
	s.Require().NoError(err)
	_, err = New(store, "").Toggle(s.ctx, 4)
	s.Require().NoError(err)
	s.Require().NoError(store.Close())

	reopened, err := kvstore.NewSQLiteStore(dbPath)
	s.Require().NoError(err)
	defer reopened.Close()

	id, ok, err := New(reopened, "").Expanded(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(4, id)
}

func TestStateTestSuite(t *testing.T) {
	suite.Run(t, new(StateTestSuite))
}
