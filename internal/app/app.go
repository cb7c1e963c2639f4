// Package app assembles the engine and its dependencies from configuration.
package app

import (
	"context"
	"fmt"
	"log"

	"aegis/internal/config"
	"aegis/internal/engine"
	"aegis/internal/layers"
	"aegis/internal/metrics"
	"aegis/internal/reputation"
	"aegis/internal/rules"
	"aegis/internal/storage"
	"aegis/internal/storage/memory"
	"aegis/internal/storage/postgres"
	"aegis/internal/storage/sqlite"
)

// App owns the long-lived pieces shared by the CLI commands.
type App struct {
	Config  *config.Config
	Store   storage.Storer
	Metrics *metrics.Metrics
	Engine  *engine.Engine
}

// Open validates cfg, connects the history store and builds the engine.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := rules.Default()
	if cfg.RulesFile != "" {
		loaded, err := rules.Load(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		r = loaded
		log.Printf("loaded rules from %s", cfg.RulesFile)
	}

	bl, err := reputation.Load(cfg.BlocklistFile)
	if err != nil {
		return nil, err
	}
	if cfg.BlocklistFile != "" {
		log.Printf("loaded blocklist from %s", cfg.BlocklistFile)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	return &App{
		Config:  cfg,
		Store:   store,
		Metrics: m,
		Engine:  engine.New(store, layers.Default(r), bl, m),
	}, nil
}

// OpenStore connects the history store selected by DATABASE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Storer, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.DatabaseDriver)
}

// Close releases the history store.
func (a *App) Close() error {
	return a.Store.Close()
}
