package server

import (
	"fmt"
	"net/http"
	"strconv"

	"disksim/pkg/log"
	"disksim/pkg/simulator"

	"github.com/labstack/echo/v4"
)

type sidebarResponse struct {
	Module int  `json:"module"`
	Open   bool `json:"open"`
}

type sidebarRequest struct {
	Open *bool `json:"open"`
}

type missionsResponse struct {
	Missions []simulator.MissionStatus `json:"missions"`
	Current  int                       `json:"current"`
}

func intParam(ctx echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return v, nil
}

// getTopic handles GET /api/modules/:module/topics/:topic. Visiting a topic
// also opens its module in the sidebar.
func (s *Server) getTopic(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "module")
	if err != nil {
		return respondError(ctx, err)
	}
	index, err := s.catalog.ResolveTopicIndex(moduleID, ctx.Param("topic"))
	if err != nil {
		return respondError(ctx, err)
	}
	nav, err := s.catalog.Neighbors(moduleID, index)
	if err != nil {
		return respondError(ctx, err)
	}
	if _, _, err := s.sidebar.SyncFromPath(ctx.Request().Context(), nav.Path); err != nil {
		log.Warn().Err(err).Str("path", nav.Path).Msg("Failed to sync sidebar")
	}
	return ctx.JSON(http.StatusOK, nav)
}

// getSidebar handles GET /api/sidebar.
func (s *Server) getSidebar(ctx echo.Context) error {
	id, open, err := s.sidebar.Expanded(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, sidebarResponse{Module: id, Open: open})
}

func (s *Server) sidebarModule(ctx echo.Context) (int, error) {
	moduleID, err := intParam(ctx, "module")
	if err != nil {
		return 0, err
	}
	if _, err := s.catalog.Module(moduleID); err != nil {
		return 0, err
	}
	return moduleID, nil
}

// setSidebar handles PUT /api/sidebar/:module with {"open": bool}.
func (s *Server) setSidebar(ctx echo.Context) error {
	moduleID, err := s.sidebarModule(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	var req sidebarRequest
	if err := bind(ctx, &req); err != nil {
		return respondError(ctx, err)
	}
	if req.Open == nil {
		return respondError(ctx, fmt.Errorf("%w: open is required", errBadRequest))
	}
	if err := s.sidebar.SetOpen(ctx.Request().Context(), moduleID, *req.Open); err != nil {
		return respondError(ctx, err)
	}
	return s.getSidebar(ctx)
}

// toggleSidebar handles POST /api/sidebar/:module/toggle.
func (s *Server) toggleSidebar(ctx echo.Context) error {
	moduleID, err := s.sidebarModule(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	open, err := s.sidebar.Toggle(ctx.Request().Context(), moduleID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, sidebarResponse{Module: moduleID, Open: open})
}

// collapseSidebar handles DELETE /api/sidebar.
func (s *Server) collapseSidebar(ctx echo.Context) error {
	if err := s.sidebar.Collapse(ctx.Request().Context()); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, sidebarResponse{})
}

// listMissions handles GET /api/missions.
func (s *Server) listMissions(ctx echo.Context) error {
	statuses, current, err := s.sim.Missions(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, missionsResponse{Missions: statuses, Current: current})
}

// checkMission handles POST /api/missions/:id/check.
func (s *Server) checkMission(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}
	entry, err := s.sim.CheckMission(ctx.Request().Context(), id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, entry)
}

// resetMission handles DELETE /api/missions/:id.
func (s *Server) resetMission(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}
	if err := s.sim.ResetMission(ctx.Request().Context(), id); err != nil {
		return respondError(ctx, err)
	}
	return s.listMissions(ctx)
}

// resetMissions handles DELETE /api/missions.
func (s *Server) resetMissions(ctx echo.Context) error {
	if err := s.sim.ResetMissions(ctx.Request().Context()); err != nil {
		return respondError(ctx, err)
	}
	return s.listMissions(ctx)
}
