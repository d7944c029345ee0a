// Package server wires the store server together: config, logging, the
// events repository (postgres or in-memory), migrations, and the HTTP API
// with signal-driven graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/skylog-app/skylog/internal/logging"
	"github.com/skylog-app/skylog/internal/server/config"
	"github.com/skylog-app/skylog/internal/server/events"
	"github.com/skylog-app/skylog/internal/server/httpapi"
	"github.com/skylog-app/skylog/internal/server/migrations"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
	db     *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var repo events.Repository
	var db *sql.DB

	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory store")
		repo = events.NewMemoryRepository()
	} else {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		repo = events.NewPostgresRepository(db)
	}

	svc := events.NewService(repo, logger)
	handler := httpapi.NewHandler(svc, logger)
	srv := httpapi.NewServer(cfg.Address, handler, logger)

	return &App{config: cfg, logger: logger, server: srv, db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	app.logger.Info(ctx, "starting app...")
	err := app.server.Run(ctx)

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
