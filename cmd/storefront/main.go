package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jcmexdev/storefront/internal/backend"
	"github.com/jcmexdev/storefront/internal/checkout/attemptlog"
	attemptsqlite "github.com/jcmexdev/storefront/internal/checkout/attemptlog/sqlite"
	"github.com/jcmexdev/storefront/internal/defaults"
	defaultsredis "github.com/jcmexdev/storefront/internal/defaults/redis"
	defaultssqlite "github.com/jcmexdev/storefront/internal/defaults/sqlite"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/session"
	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, closeStore, err := openDefaults(ctx, cfg)
	if err != nil {
		slog.Error("failed to open defaults store", "driver", cfg.DefaultsDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore.Close()

	attempts, closeAttempts, err := openAttemptLog(cfg.AttemptLogPath)
	if err != nil {
		slog.Error("failed to open attempt log", "path", cfg.AttemptLogPath, "error", err)
		os.Exit(1)
	}
	defer closeAttempts.Close()

	api := backend.New(backend.Config{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
	})

	registry := session.NewRegistry(session.Config{
		Backend:    api,
		Store:      store,
		AttemptLog: attempts,
		IdleTTL:    cfg.SessionIdleTTL,
	})
	go registry.SweepEvery(ctx, time.Minute)

	handler := httpx.NewHandler(registry, api, attempts)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("storefront running", "addr", cfg.HTTPAddr, "backend", cfg.BackendBaseURL, "defaults_driver", cfg.DefaultsDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openDefaults(ctx context.Context, cfg *config.Config) (defaults.Store, io.Closer, error) {
	switch cfg.DefaultsDriver {
	case config.DriverRedis:
		s, err := defaultsredis.Dial(ctx, cfg.RedisAddr, cfg.ServiceName)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverMemory:
		return defaults.NewMemoryStore(), nopCloser{}, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DefaultsSQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := defaultssqlite.Open(cfg.DefaultsSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}

func openAttemptLog(path string) (attemptlog.Repository, io.Closer, error) {
	if path == "" {
		return attemptlog.NewMemoryRepository(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	repo, err := attemptsqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo, nil
}
