// Package application assembles the configured store and service shared by
// the server and the CLI.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seduc-am/planoacao/internal/config"
	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/store/memory"
	"github.com/seduc-am/planoacao/internal/store/postgres"
)

// App is a wired service and the resources behind it.
type App struct {
	Config  *config.Config
	Store   core.Store
	Service *core.Service

	closers []func()
}

// Open connects the store selected by STORE_DRIVER, applies migrations when
// DB_AUTO_MIGRATE is set, and builds the service.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		app.Store = memory.New()

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		slog.Info("connected to database", "name", postgres.DatabaseName(cfg.Database.URL))

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				app.Close()
				return nil, err
			}
		}
		app.Store = postgres.New(pool)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Database.Driver)
	}

	app.Service = core.NewService(
		app.Store,
		core.SystemClock{Location: cfg.App.Location()},
		core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		ServiceOptions(cfg),
	)
	return app, nil
}

// ServiceOptions maps configuration onto core.Options.
func ServiceOptions(cfg *config.Config) core.Options {
	return core.Options{
		BatchSize:     cfg.Upload.BatchSize,
		MaxFileSize:   cfg.Upload.MaxFileSize,
		UploadTimeout: cfg.Upload.Timeout,
		JWTSecret:     []byte(cfg.Security.JWTSecret),
		TokenTTL:      cfg.Security.TokenTTL,
		BcryptCost:    cfg.Security.BcryptCost,
	}
}

// Close releases the store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
