package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disksim/pkg/catalog"
	"disksim/pkg/log"
	"disksim/pkg/metrics"
	"disksim/pkg/sidebar"
	"disksim/pkg/simulator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10

type Server struct {
	echo    *echo.Echo
	sim     *simulator.Service
	catalog *catalog.Catalog
	sidebar *sidebar.State
	version string
}

func NewServer(sim *simulator.Service, cat *catalog.Catalog, side *sidebar.State, version string) *Server {
	return &Server{
		echo:    echo.New(),
		sim:     sim,
		catalog: cat,
		sidebar: side,
		version: version,
	}
}

// Handler returns the routed echo instance, mainly for tests.
func (s *Server) Handler() http.Handler {
	s.setupRoutes()
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.setupRoutes()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", s.version).
			Msg("Starting simulator API")

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func (s *Server) setupRoutes() {
	if len(s.echo.Routes()) > 0 {
		return
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	s.echo.Use(middleware.Recover())

	api := s.echo.Group("/api")
	api.GET("/disks", s.listDisks)
	api.POST("/disks/usb", s.addRemovableDisk)
	api.POST("/reset", s.resetDisks)

	seg := api.Group("/disks/:disk/segments/:segment")
	seg.POST("/create", s.createPartition)
	seg.DELETE("", s.deletePartition)
	seg.POST("/shrink", s.shrinkPartition)
	seg.POST("/extend", s.extendPartition)
	seg.POST("/format", s.formatPartition)
	seg.POST("/letter", s.changeDriveLetter)

	api.GET("/modules/:module/topics/:topic", s.getTopic)

	api.GET("/sidebar", s.getSidebar)
	api.PUT("/sidebar/:module", s.setSidebar)
	api.POST("/sidebar/:module/toggle", s.toggleSidebar)
	api.DELETE("/sidebar", s.collapseSidebar)

	api.GET("/missions", s.listMissions)
	api.POST("/missions/:id/check", s.checkMission)
	api.DELETE("/missions/:id", s.resetMission)
	api.DELETE("/missions", s.resetMissions)

	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}
