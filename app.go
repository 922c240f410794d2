package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"disksim/pkg/catalog"
	"disksim/pkg/config"
	"disksim/pkg/kvstore"
	"disksim/pkg/log"
	"disksim/pkg/sidebar"
	"disksim/pkg/simulator"

	"github.com/spf13/cobra"
)

// memoryStateDB selects the in-memory store.
const memoryStateDB = ":memory:"

// app bundles the services every command works against.
type app struct {
	store   kvstore.Store
	sim     *simulator.Service
	catalog *catalog.Catalog
	sidebar *sidebar.State
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	var store kvstore.Store
	if cfg.StateDB == memoryStateDB || cfg.StateDB == "" {
		store = kvstore.NewMemoryStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.StateDB), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		sqlStore, err := kvstore.NewSQLiteStore(cfg.StateDB)
		if err != nil {
			return nil, err
		}
		store = sqlStore
	}

	cat := catalog.Default()
	if cfg.Catalog != "" {
		loaded, err := catalog.LoadFile(cfg.Catalog)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		cat = loaded
	}

	sim := simulator.New(store, cfg.EngineOptions())
	if err := sim.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		store:   store,
		sim:     sim,
		catalog: cat,
		sidebar: sidebar.New(store, ""),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close state store")
	}
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
