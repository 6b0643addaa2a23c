package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fenggwsx/StartupMatch/internal/client"
	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/config"
	"github.com/fenggwsx/StartupMatch/internal/logging"
	"github.com/fenggwsx/StartupMatch/internal/server"
	"github.com/fenggwsx/StartupMatch/internal/storage"
	"github.com/fenggwsx/StartupMatch/internal/storage/sqlite"
	"github.com/fenggwsx/StartupMatch/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("startupmatch: %v", err)
	}
}

func run() error {
	// A missing .env is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	kv, err := sqlite.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer kv.Close()
	if err := kv.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate storage: %w", err)
	}

	guarded := storage.NewGuarded(kv, storage.BreakerSettings{
		MaxFailures: uint32(cfg.Breaker.MaxFailures),
		Timeout:     cfg.Breaker.Timeout,
	}, logger.Logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	st, err := store.Create(ctx, guarded,
		store.WithKey(cfg.Storage.Key),
		store.WithLogger(logger.Logger),
		store.WithRegisterer(reg),
	)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer func() {
		if err := st.Teardown(context.Background()); err != nil {
			logger.Warn("final snapshot failed", zap.Error(err))
		}
	}()

	if cfg.Metrics.Addr != "" {
		srv := server.NewApp(cfg.Metrics.Addr, st, reg, guarded, logger.Logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	if path := os.Getenv(config.FileEnv); path != "" {
		watcher, err := config.NewWatcher(path, cfg, logger.Logger, clock.New())
		if err != nil {
			logger.Warn("config reload disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next config.Config) {
				if err := logger.SetLevel(next.Log.Level); err != nil {
					logger.Warn("ignoring log level", zap.String("level", next.Log.Level), zap.Error(err))
				}
			})
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logger.Error("config watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	app := client.NewApp(client.Options{
		Config:  cfg,
		Store:   st,
		Logger:  logger.Logger,
		Storage: guarded,
	})
	defer app.Close()

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("client exited: %w", err)
	}
	return nil
}
