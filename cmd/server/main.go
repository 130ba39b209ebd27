package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/debt-planner/backend/internal/app"
	"example.com/debt-planner/backend/internal/config"
	"example.com/debt-planner/backend/internal/database"
	"example.com/debt-planner/backend/internal/handlers"
	"example.com/debt-planner/backend/internal/server"
)

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Env == "local" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Error("failed to migrate database", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	components, err := app.Build(ctx, app.Options{
		Tuning: cfg.Tuning(),
		AI:     cfg.AI,
		Cache:  cfg.Cache,
		Logger: logger,
	})
	if err != nil {
		logger.Error("failed to build planner", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("failed to close components", slog.String("error", err.Error()))
		}
	}()

	checks := map[string]handlers.HealthCheck{"database": db.Ping}
	if components.CachePing != nil {
		checks["cache"] = components.CachePing
	}

	e := server.New(cfg, logger, server.Dependencies{
		DB:           db,
		Planner:      components.Planner,
		Policy:       components.Policy,
		AILogEnabled: cfg.AI.Enabled,
		Checks:       checks,
	})
	httpServer := server.NewHTTPServer(cfg.Server, e)

	go func() {
		logger.Info("http server started", slog.String("addr", httpServer.Addr))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	for _, candidate := range []string{".env", "../.env"} {
		if _, err := os.Stat(candidate); err == nil {
			_ = os.Setenv("ENV_FILE", candidate)
			return
		}
	}
}
