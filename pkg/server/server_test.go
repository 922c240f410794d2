package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"disksim/pkg/catalog"
	"disksim/pkg/kvstore"
	"disksim/pkg/partition"
	"disksim/pkg/sidebar"
	"disksim/pkg/simulator"

	"github.com/stretchr/testify/suite"
)

// ServerTestSuite tests the HTTP API.
type ServerTestSuite struct {
	suite.Suite
	server  *Server
	sim     *simulator.Service
	handler http.Handler
}

// SetupTest runs before each test.
func (s *ServerTestSuite) SetupTest() {
	store := kvstore.NewMemoryStore()
	s.sim = simulator.New(store, partition.Options{})
	s.server = NewServer(s.sim, catalog.Default(), sidebar.New(store, ""), "test-v1.0.0")
	s.handler = s.server.Handler()
}

func (s *ServerTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *ServerTestSuite) segmentURL(idx int, action string) string {
	d, err := s.sim.Disk(partition.InitialDiskID)
	s.Require().NoError(err)
	url := "/api/disks/" + d.ID + "/segments/" + d.Segments[idx].ID
	if action != "" {
		url += "/" + action
	}
	return url
}

func (s *ServerTestSuite) assertError(rec *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, rec.Code, rec.Body.String())
	var resp errorResponse
	s.decode(rec, &resp)
	s.Equal(code, resp.Code)
	s.NotEmpty(resp.Error)
}

// TestListDisks tests GET /api/disks.
func (s *ServerTestSuite) TestListDisks() {
	rec := s.do(http.MethodGet, "/api/disks", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var snap partition.Snapshot
	s.decode(rec, &snap)
	s.Require().Len(snap.Disks, 1)
	s.Len(snap.Disks[0].Segments, 3)
}

// TestPartitionLifecycle tests create, shrink, extend, format, letter and delete.
func (s *ServerTestSuite) TestPartitionLifecycle() {
	rec := s.do(http.MethodPost, s.segmentURL(2, "create"), `{"size_mb":100000,"drive_letter":"D","label":"Data","file_system":"NTFS"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created partition.Segment
	s.decode(rec, &created)
	s.Equal(int64(100_000), created.SizeMB)
	s.Equal("D", created.DriveLetter)

	rec = s.do(http.MethodPost, s.segmentURL(2, "shrink"), `{"amount_mb":20000}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var disk partition.Disk
	s.decode(rec, &disk)
	s.Equal(int64(80_000), disk.Segments[2].SizeMB)

	rec = s.do(http.MethodPost, s.segmentURL(2, "extend"), `{"amount_mb":5000}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, s.segmentURL(2, "format"), `{"label":"Games","file_system":"exFAT"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, s.segmentURL(2, "letter"), `{"drive_letter":"G"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	seg, err := s.sim.Segment(partition.InitialDiskID, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(85_000), seg.SizeMB)
	s.Equal("Games", seg.Label)
	s.Equal(partition.FSExFAT, seg.FileSystem)
	s.Equal("G", seg.DriveLetter)

	rec = s.do(http.MethodDelete, s.segmentURL(2, ""), "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &disk)
	s.Len(disk.Segments, 3)
}

// TestRuleViolations tests the 409 mapping.
func (s *ServerTestSuite) TestRuleViolations() {
	s.assertError(s.do(http.MethodDelete, s.segmentURL(0, ""), ""), http.StatusConflict, "ProtectedSegment")
	s.assertError(s.do(http.MethodPost, s.segmentURL(1, "shrink"), `{"amount_mb":1000}`), http.StatusConflict, "ProtectedSegment")

	rec := s.do(http.MethodPost, s.segmentURL(2, "create"), `{"size_mb":1000,"file_system":"FAT32"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	s.assertError(s.do(http.MethodPost, s.segmentURL(2, "shrink"), `{"amount_mb":1000}`), http.StatusConflict, "InvalidShrinkAmount")
	s.assertError(s.do(http.MethodPost, s.segmentURL(3, "extend"), `{"amount_mb":10}`), http.StatusConflict, "InvalidTarget")
	s.assertError(s.do(http.MethodPost, s.segmentURL(2, "letter"), `{"drive_letter":"7"}`), http.StatusConflict, "InvalidDriveLetter")
	s.assertError(s.do(http.MethodPost, s.segmentURL(2, "letter"), `{"drive_letter":"C"}`), http.StatusConflict, "DuplicateDriveLetter")
	s.assertError(s.do(http.MethodPost, s.segmentURL(2, "format"), `{"file_system":"ext4"}`), http.StatusConflict, "InvalidFileSystem")
}

// TestNotFound tests the 404 mapping.
func (s *ServerTestSuite) TestNotFound() {
	s.assertError(s.do(http.MethodDelete, "/api/disks/disk-9/segments/x", ""), http.StatusNotFound, "DiskNotFound")
	s.assertError(s.do(http.MethodDelete, "/api/disks/disk-0/segments/x", ""), http.StatusNotFound, "SegmentNotFound")
	s.assertError(s.do(http.MethodGet, "/api/modules/99/topics/1", ""), http.StatusNotFound, "ModuleNotFound")
	s.assertError(s.do(http.MethodGet, "/api/modules/1/topics/99", ""), http.StatusNotFound, "TopicNotFound")
	s.assertError(s.do(http.MethodPost, "/api/missions/9/check", ""), http.StatusNotFound, "MissionNotFound")
}

// TestBadPayload tests the 400 mapping.
func (s *ServerTestSuite) TestBadPayload() {
	s.assertError(s.do(http.MethodPost, s.segmentURL(1, "shrink"), `{"amount_mb":`), http.StatusBadRequest, "BadRequest")
	s.assertError(s.do(http.MethodPost, "/api/missions/abc/check", ""), http.StatusBadRequest, "BadRequest")
	s.assertError(s.do(http.MethodPut, "/api/sidebar/first", ""), http.StatusBadRequest, "BadRequest")
}

// TestRemovableDiskAndReset tests POST /api/disks/usb and POST /api/reset.
func (s *ServerTestSuite) TestRemovableDiskAndReset() {
	rec := s.do(http.MethodPost, "/api/disks/usb", "")
	s.Require().Equal(http.StatusCreated, rec.Code)
	var disk partition.Disk
	s.decode(rec, &disk)
	s.Equal(partition.RemovableDiskID, disk.ID)

	s.assertError(s.do(http.MethodPost, "/api/disks/usb", ""), http.StatusConflict, "DiskExists")

	rec = s.do(http.MethodPost, "/api/reset", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(s.sim.Disks(), 1)
}

// TestTopicSyncsSidebar tests topic lookup and the sidebar routes.
func (s *ServerTestSuite) TestTopicSyncsSidebar() {
	rec := s.do(http.MethodGet, "/api/modules/1/topics/1", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var nav catalog.Navigation
	s.decode(rec, &nav)
	s.Equal(1, nav.Index)
	s.Equal("m1-t1", nav.Topic.ID)
	s.Equal("/module/1/topic/m1-intro", nav.PrevPath)
	s.Equal("/module/1/topic/2", nav.NextPath)

	var side sidebarResponse
	s.decode(s.do(http.MethodGet, "/api/sidebar", ""), &side)
	s.Equal(sidebarResponse{Module: 1, Open: true}, side)

	s.decode(s.do(http.MethodPost, "/api/sidebar/1/toggle", ""), &side)
	s.False(side.Open)

	for range 2 {
		rec = s.do(http.MethodPut, "/api/sidebar/3", `{"open":true}`)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		s.decode(rec, &side)
		s.Equal(sidebarResponse{Module: 3, Open: true}, side)
	}

	s.decode(s.do(http.MethodPut, "/api/sidebar/2", `{"open":false}`), &side)
	s.Equal(sidebarResponse{Module: 3, Open: true}, side)

	for range 2 {
		s.decode(s.do(http.MethodPut, "/api/sidebar/3", `{"open":false}`), &side)
		s.False(side.Open)
	}

	s.assertError(s.do(http.MethodPut, "/api/sidebar/3", ""), http.StatusBadRequest, "BadRequest")
	s.assertError(s.do(http.MethodPut, "/api/sidebar/99", `{"open":true}`), http.StatusNotFound, "ModuleNotFound")
	s.assertError(s.do(http.MethodPost, "/api/sidebar/99/toggle", ""), http.StatusNotFound, "ModuleNotFound")

	s.decode(s.do(http.MethodPost, "/api/sidebar/5/toggle", ""), &side)
	s.Equal(sidebarResponse{Module: 5, Open: true}, side)

	rec = s.do(http.MethodDelete, "/api/sidebar", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(s.do(http.MethodGet, "/api/sidebar", ""), &side)
	s.False(side.Open)
}

// TestMissions tests the mission routes.
func (s *ServerTestSuite) TestMissions() {
	s.assertError(s.do(http.MethodPost, "/api/missions/3/check", ""), http.StatusConflict, "RequirementMissing")

	rec := s.do(http.MethodPost, "/api/missions/2/check", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var entry struct {
		Success  bool `json:"success"`
		Attempts int  `json:"attempts"`
	}
	s.decode(rec, &entry)
	s.False(entry.Success)
	s.Equal(1, entry.Attempts)

	rec = s.do(http.MethodGet, "/api/missions", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp struct {
		Missions []struct {
			ID        int  `json:"id"`
			Completed bool `json:"completed"`
		} `json:"missions"`
		Current int `json:"current"`
	}
	s.decode(rec, &resp)
	s.Len(resp.Missions, 3)
	s.Equal(1, resp.Current)

	d, err := s.sim.Disk(partition.InitialDiskID)
	s.Require().NoError(err)
	s.Require().NoError(s.sim.ExtendPartition(context.Background(), partition.InitialDiskID, d.Segments[1].ID, 60_000))
	rec = s.do(http.MethodPost, "/api/missions/2/check", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &entry)
	s.True(entry.Success)
	s.Equal(2, entry.Attempts)

	rec = s.do(http.MethodDelete, "/api/missions/1", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &resp)
	s.True(resp.Missions[1].Completed)

	rec = s.do(http.MethodDelete, "/api/missions/2", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &resp)
	s.False(resp.Missions[1].Completed)

	s.assertError(s.do(http.MethodDelete, "/api/missions/9", ""), http.StatusNotFound, "MissionNotFound")

	s.do(http.MethodPost, "/api/missions/2/check", "")
	rec = s.do(http.MethodDelete, "/api/missions", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &resp)
	s.False(resp.Missions[1].Completed)
}

// TestMetrics tests GET /metrics.
func (s *ServerTestSuite) TestMetrics() {
	s.do(http.MethodDelete, s.segmentURL(0, ""), "")

	rec := s.do(http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `disksim_operations_total{operation="delete",result="ProtectedSegment"}`)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
