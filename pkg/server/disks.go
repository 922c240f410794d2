package server

import (
	"fmt"
	"net/http"

	"disksim/pkg/partition"
	"disksim/pkg/simulator"

	"github.com/labstack/echo/v4"
)

type createRequest struct {
	SizeMB      int64                `json:"size_mb"`
	DriveLetter string               `json:"drive_letter"`
	Label       string               `json:"label"`
	FileSystem  partition.FileSystem `json:"file_system"`
}

type amountRequest struct {
	AmountMB int64 `json:"amount_mb"`
}

type formatRequest struct {
	Label      string               `json:"label"`
	FileSystem partition.FileSystem `json:"file_system"`
}

type letterRequest struct {
	DriveLetter string `json:"drive_letter"`
}

func bind(ctx echo.Context, v interface{}) error {
	if err := ctx.Bind(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// listDisks handles GET /api/disks.
func (s *Server) listDisks(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.sim.Snapshot())
}

// addRemovableDisk handles POST /api/disks/usb.
func (s *Server) addRemovableDisk(ctx echo.Context) error {
	disk, err := s.sim.AddRemovableDisk(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, disk)
}

// resetDisks handles POST /api/reset.
func (s *Server) resetDisks(ctx echo.Context) error {
	if err := s.sim.Reset(ctx.Request().Context()); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, s.sim.Snapshot())
}

// createPartition handles POST /api/disks/:disk/segments/:segment/create.
func (s *Server) createPartition(ctx echo.Context) error {
	var req createRequest
	if err := bind(ctx, &req); err != nil {
		return respondError(ctx, err)
	}
	created, err := s.sim.CreatePartition(ctx.Request().Context(), simulator.CreateRequest{
		DiskID:      ctx.Param("disk"),
		SegmentID:   ctx.Param("segment"),
		SizeMB:      req.SizeMB,
		DriveLetter: req.DriveLetter,
		Label:       req.Label,
		FileSystem:  req.FileSystem,
	})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, created)
}

// deletePartition handles DELETE /api/disks/:disk/segments/:segment.
func (s *Server) deletePartition(ctx echo.Context) error {
	diskID := ctx.Param("disk")
	if err := s.sim.DeletePartition(ctx.Request().Context(), diskID, ctx.Param("segment")); err != nil {
		return respondError(ctx, err)
	}
	return s.respondDisk(ctx, diskID)
}

// shrinkPartition handles POST /api/disks/:disk/segments/:segment/shrink.
func (s *Server) shrinkPartition(ctx echo.Context) error {
	var req amountRequest
	if err := bind(ctx, &req); err != nil {
		return respondError(ctx, err)
	}
	diskID := ctx.Param("disk")
	if err := s.sim.ShrinkPartition(ctx.Request().Context(), diskID, ctx.Param("segment"), req.AmountMB); err != nil {
		return respondError(ctx, err)
	}
	return s.respondDisk(ctx, diskID)
}

// extendPartition handles POST /api/disks/:disk/segments/:segment/extend.
func (s *Server) extendPartition(ctx echo.Context) error {
	var req amountRequest
	if err := bind(ctx, &req); err != nil {
		return respondError(ctx, err)
	}
	diskID := ctx.Param("disk")
	if err := s.sim.ExtendPartition(ctx.Request().Context(), diskID, ctx.Param("segment"), req.AmountMB); err != nil {
		return respondError(ctx, err)
	}
	return s.respondDisk(ctx, diskID)
}

// formatPartition handles POST /api/disks/:disk/segments/:segment/format.
func (s *Server) formatPartition(ctx echo.Context) error {
	var req formatRequest
	if err := bind(ctx, &req); err != nil {
		return respondError(ctx, err)
	}
	diskID := ctx.Param("disk")
	if err := s.sim.FormatPartition(ctx.Request().Context(), diskID, ctx.Param("segment"), req.Label, req.FileSystem); err != nil {
		return respondError(ctx, err)
	}
	return s.respondDisk(ctx, diskID)
}

// changeDriveLetter handles POST /api/disks/:disk/segments/:segment/letter.
func (s *Server) changeDriveLetter(ctx echo.Context) error {
	var req letterRequest
	if err := bind(ctx, &req); err != nil {
		return respondError(ctx, err)
	}
	diskID := ctx.Param("disk")
	if err := s.sim.ChangeDriveLetter(ctx.Request().Context(), diskID, ctx.Param("segment"), req.DriveLetter); err != nil {
		return respondError(ctx, err)
	}
	return s.respondDisk(ctx, diskID)
}

func (s *Server) respondDisk(ctx echo.Context, diskID string) error {
	disk, err := s.sim.Disk(diskID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, disk)
}
