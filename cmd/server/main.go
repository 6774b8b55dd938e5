package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hackarena/portal/internal/api"
	"github.com/hackarena/portal/internal/auth"
	"github.com/hackarena/portal/internal/challenge"
	"github.com/hackarena/portal/internal/config"
	"github.com/hackarena/portal/internal/database"
	"github.com/hackarena/portal/internal/leaderboard"
	"github.com/hackarena/portal/internal/ledger"
	"github.com/hackarena/portal/internal/notify"
	"github.com/hackarena/portal/internal/profile"
	"github.com/hackarena/portal/internal/team"
)

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.CreateSchema {
		if err := db.CreateSchema(ctx); err != nil {
			slog.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
		slog.Info("database schema ensured")
	}

	profiles := profile.NewRepository(db.Pool())
	teams := team.NewRepository(db.Pool())
	challenges := challenge.NewRepository(db.Pool())
	entries := ledger.NewStore(db.Pool())

	authService := auth.NewService(profiles, teams, cfg.JWTSecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute, cfg.BcryptCost)
	if err := authService.BootstrapAdmin(ctx, cfg.BootstrapAdmin, cfg.BootstrapPassword); err != nil {
		slog.Error("failed to bootstrap admin profile", "error", err)
		os.Exit(1)
	}

	bus := notify.NewGoChannelBus(logger)
	defer bus.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := leaderboard.NewMetrics(registry)

	board := leaderboard.NewService(teams, entries, bus, logger, metrics, leaderboard.Options{
		Debounce: time.Duration(cfg.DebounceMillis) * time.Millisecond,
		Resync:   time.Duration(cfg.ResyncSeconds) * time.Second,
	})
	if err := board.Start(ctx); err != nil {
		slog.Error("failed to start leaderboard sync", "error", err)
		os.Exit(1)
	}
	defer board.Close()

	router := api.NewRouter(api.RouterDeps{
		DBPinger:    db,
		Version:     cfg.Version,
		Teams:       teams,
		Profiles:    profiles,
		Challenges:  challenges,
		Ledger:      entries,
		Leaderboard: board,
		Auth: &api.AuthDeps{
			Login:    authService,
			Verifier: authService,
			Hasher:   authService,
		},
		Bus:      bus,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting portal server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
