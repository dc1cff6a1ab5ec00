// Command api serves the project-intake HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/app"
	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/config"
	"github.com/spec-kit/project-intake/internal/observability"
	"github.com/spec-kit/project-intake/internal/persistence"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	stores := app.MemoryStores()
	if !pg.InMemory() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				return err
			}
		}
		stores = app.PostgresStores(pg.PoolHandle())
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	server := app.NewServer(cfg, app.Dependencies{
		Stores:   stores,
		Sessions: auth.NewRedisSessionStore(rdb.Client, cfg.Redis.SessionPrefix),
		Postgres: pg,
		Redis:    rdb,
		Metrics:  observability.NewMetrics(),
		Logger:   logger,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("env", cfg.App.Env),
			zap.Bool("in_memory", pg.InMemory()),
		)
		listenErr <- server.App.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	return server.App.ShutdownWithTimeout(shutdownGrace)
}
