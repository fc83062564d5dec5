// Package app wires the coinbot components into a runnable Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	bolt "go.etcd.io/bbolt"

	"github.com/m3rciful/coinbot/bots/coin/config"
	"github.com/m3rciful/coinbot/bots/coin/handlers"
	"github.com/m3rciful/coinbot/bots/coin/storage"
	"github.com/m3rciful/coinbot/core/bootstrap"
	"github.com/m3rciful/coinbot/core/logger"
	"github.com/m3rciful/coinbot/core/metrics"
	tg "github.com/m3rciful/coinbot/core/telegram"
	"github.com/m3rciful/coinbot/core/telegram/router"
	tgsender "github.com/m3rciful/coinbot/core/telegram/sender"
	"github.com/m3rciful/coinbot/core/telegram/state"
)

// App owns the infrastructure of a running coinbot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	stateDB  *bolt.DB
	handlers *handlers.Handlers
	metrics  *metrics.Server
}

// Bootstrap initializes logging, the database with its schema, and the
// conversation store selected by cfg.
func Bootstrap(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:        &cfg.Core,
		Database:      cfg.Database,
		Migrations:    storage.Migrations,
		MigrationsDir: storage.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}

	store, stateDB, err := openStateStore(cfg.State)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return newApp(cfg, res.DB, store, stateDB), nil
}

func newApp(cfg *config.Config, db *sqlx.DB, store state.Store, stateDB *bolt.DB) *App {
	a := &App{
		cfg:      cfg,
		db:       db,
		stateDB:  stateDB,
		handlers: handlers.New(storage.NewUsersRepo(db), state.NewManager(store)),
	}
	if cfg.Metrics.Addr != "" {
		a.metrics = metrics.NewServer(cfg.Metrics.Addr)
	}
	return a
}

// openStateStore returns the configured backend. The bolt handle is nil for
// the memory backend.
func openStateStore(cfg config.StateConfig) (state.Store, *bolt.DB, error) {
	if cfg.Backend != config.StateBolt {
		logger.Info(context.Background(), "tg", "fsm.backend", slog.String("mode", config.StateMemory))
		return state.NewMemoryStore(), nil, nil
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("state dir: %w", err)
		}
	}
	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("open state db %s: %w", cfg.Path, err)
	}
	store, err := state.NewBoltStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger.Info(context.Background(), "tg", "fsm.backend",
		slog.String("mode", config.StateBolt),
		slog.String("db", cfg.Path),
	)
	return store, db, nil
}

// TelegramRunOptions registers the handlers and builds the runtime options.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}
	owner := a.cfg.Core.Telegram.AdminID

	var routes []tg.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: owner})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{AdminID: owner}))
	routes = append(routes, router.TextRoutes(a.handlers.FSM(), reg, router.TextOptions{
		AdminID:         owner,
		UnknownText:     a.handlers.UnknownText(),
		UnknownDocument: a.handlers.UnknownDocument(),
		UnknownMedia:    a.handlers.UnknownMedia(),
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		DispatcherOptions: tgsender.Options{
			Workers:    a.cfg.Sender.Workers,
			QueueSize:  a.cfg.Sender.QueueSize,
			MaxRetries: a.cfg.Sender.Retries(),
		},
		OnStart: a.onStart,
		OnStop:  a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	if a.metrics == nil {
		return nil
	}
	ln, err := a.metrics.Listen()
	if err != nil {
		logger.Error(ctx, "app", "metrics.serve",
			slog.String("status", "fail"),
			slog.String("listen", a.cfg.Metrics.Addr),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("metrics listen %s: %w", a.cfg.Metrics.Addr, err)
	}
	go func() {
		if err := a.metrics.Serve(ln); err != nil {
			logger.Error(ctx, "app", "metrics.serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.Info(ctx, "app", "metrics.serve",
		slog.String("status", "ok"),
		slog.String("listen", ln.Addr().String()),
	)
	return nil
}

// onStop releases resources in reverse order of acquisition.
func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	var errs []error
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if a.stateDB != nil {
		if err := a.stateDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("state db close: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}
