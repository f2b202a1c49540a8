package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/healthsync/internal/engine"
	"github.com/roach88/healthsync/internal/store"
)

// App is one command's open database and tracker.
type App struct {
	Store   *store.Store
	Tracker *engine.Tracker
	User    string
}

// openApp opens the configured database and wires a tracker over it.
// The caller must Close the App.
func openApp(opts *RootOptions) (*App, error) {
	cfg := opts.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = engine.NewSystemClock(loc)
	}

	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database, err)
	}

	tracker := engine.NewTracker(st.Repositories(), clock,
		engine.WithLogger(slog.Default()),
		engine.WithReconcileOnRead(cfg.ReconcileOnReadEnabled()),
	)
	return &App{Store: st, Tracker: tracker, User: cfg.User}, nil
}

// Close closes the database.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withApp opens the app, runs fn and reports any error through f.
func withApp(opts *RootOptions, f *OutputFormatter, fn func(app *App) error) error {
	app, err := openApp(opts)
	if err != nil {
		return f.Fail(ErrCodeDatabase, err)
	}
	defer app.Close()

	if err := fn(app); err != nil {
		return f.Fail(ErrCodeGeneric, err)
	}
	return nil
}
