// Package app wires configuration, logging, persistence and the session
// manager together for the command-line client.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/openclinic/medrec/internal/session/sqlite"
	"github.com/openclinic/medrec/pkg/authsdk"
	"github.com/openclinic/medrec/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application bundles the long-lived dependencies of the client: the
// configured logger, the sqlite session store and the session manager built
// on top of both.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store   *sqlite.Store
	client  *authsdk.SDKClient
	manager *authsdk.Manager
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "medrec",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no backend endpoints configured")
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.client = authsdk.NewSDKClient(cfg.Endpoints...)
	app.client.Logger = app.logger
	if cfg.AttemptTimeout > 0 {
		app.client.AttemptTimeout = cfg.AttemptTimeout
	}

	app.manager = authsdk.NewManager(app.client, app.store, app.logger)
	return app, nil
}

// Manager returns the session manager commands operate through.
func (app *Application) Manager() *authsdk.Manager { return app.manager }

// Client returns the stateless SDK client for pre-authentication probes.
func (app *Application) Client() *authsdk.SDKClient { return app.client }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Close releases the session database.
func (app *Application) Close() error {
	if app.store == nil {
		return nil
	}
	return app.store.Close()
}

func (app *Application) initStore() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", app.cfg.DatabaseFile)
	store, err := sqlite.NewStore(dsn, []byte(app.cfg.SealKey))
	if err != nil {
		return fmt.Errorf("failed to initialize session database: %w", err)
	}
	app.store = store

	start := time.Now()
	if err := store.ApplyMigrations(); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Debug("session database ready",
		"file", app.cfg.DatabaseFile,
		"took", time.Since(start).String(),
	)
	return nil
}
