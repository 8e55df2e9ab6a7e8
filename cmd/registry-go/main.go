// Package main is the entrypoint for the registry-go server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openregistry/registry-go/internal/config"
	"github.com/openregistry/registry-go/internal/identity"
	"github.com/openregistry/registry-go/internal/indexclient"
	"github.com/openregistry/registry-go/internal/registry"
	"github.com/openregistry/registry-go/internal/server"
	"github.com/openregistry/registry-go/internal/store"

	// Register store drivers
	_ "github.com/openregistry/registry-go/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file (optional)")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	storeDriver := flag.String("store-driver", "", "Store driver: memory or sqlite (overrides config)")
	dataDir := flag.String("data-dir", "", "Data directory for the sqlite driver (overrides config)")
	indexURL := flag.String("index-url", "", "Index service base URL (overrides config)")
	flag.Parse()

	// Bootstrap logger for config loading errors (uses default level)
	bootstrapLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPath: *configPath,
		FlagOverrides: config.FlagOverrides{
			ListenAddr:  listenAddr,
			LogLevel:    logLevel,
			StoreDriver: storeDriver,
			DataDir:     dataDir,
			IndexURL:    indexURL,
		},
		Logger: bootstrapLogger,
	})
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	db, err := store.New(&cfg.Store)
	if err != nil {
		logger.Error("failed to create store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	if err := db.Init(context.Background()); err != nil {
		logger.Error("failed to initialize store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var notifier registry.IndexNotifier = registry.NopIndexNotifier{}
	if cfg.Index.BaseURL != "" {
		notifier = indexclient.New(indexclient.Options{
			BaseURL:       cfg.Index.BaseURL,
			Timeout:       time.Duration(cfg.Index.TimeoutMS) * time.Millisecond,
			TripThreshold: cfg.Index.TripThreshold,
			Logger:        logger,
		})
	} else {
		logger.Warn("no index URL configured, yank notifications are disabled")
	}

	teams := identity.NewStaticTeamDirectory(cfg.Teams.Static)
	svc := registry.NewService(db, teams, notifier, logger)

	srv, err := server.New(cfg, logger, &server.Deps{
		Store:    db,
		Registry: svc,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
