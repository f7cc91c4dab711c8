package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/adapter/inbound/httpapi"
	"github.com/taskdeck/taskdeck/internal/adapter/outbound/memory"
	"github.com/taskdeck/taskdeck/internal/adapter/outbound/sqlite"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/domain/auth"
	"github.com/taskdeck/taskdeck/internal/domain/task"
	"github.com/taskdeck/taskdeck/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the taskdeck API server.

The server exposes the authentication and task endpoints under /api/v1,
Prometheus metrics under /metrics, and a liveness probe under /health.

Examples:
  # Start with config file settings
  taskdeck serve

  # Start with a specific config file
  taskdeck --config /path/to/config.yaml serve

  # Start in development mode (debug logging, fixed dev secret)
  taskdeck serve --dev`,
	RunE: runServe,
}

var devMode bool

func init() {
	serveCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, fixed dev secret)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration without validation so the --dev flag can
	// apply its defaults first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does
	// a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}
	if cfg.DevMode {
		logger.Warn("development mode enabled: fixed signing secret, debug logging")
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("taskdeck stopped")
	return nil
}

// run wires the stores, services, and HTTP server together and serves
// until the context is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	users, sessions, tasks, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	identity := service.NewIdentityService(
		users, sessions,
		[]byte(cfg.Auth.JWTSecret),
		cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(),
		logger,
	)
	taskService := service.NewTaskService(tasks, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httpapi.NewMetrics(registry)

	opts := []httpapi.Option{
		httpapi.WithIdentityService(identity),
		httpapi.WithTaskService(taskService),
		httpapi.WithJWTSecret([]byte(cfg.Auth.JWTSecret)),
		httpapi.WithMetrics(metrics),
		httpapi.WithLogger(logger),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, httpapi.WithRateLimit(cfg.RateLimit.PerMinute))
		logger.Debug("rate limiting enabled", "per_minute", cfg.RateLimit.PerMinute)
	}
	handler := httpapi.NewHandler(opts...)

	mux := http.NewServeMux()
	api := httpapi.RequestIDMiddleware(logger)(handler.Routes())
	mux.Handle("/api/", httpapi.MetricsMiddleware(metrics)(api))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", cfg.Server.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// openStores creates the persistence backend selected by the config.
// The returned cleanup function stops background workers and closes
// the database when applicable.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.UserStore, auth.SessionStore, task.TaskStore, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("storage ready", "driver", "sqlite", "path", cfg.Storage.Path)

		sessions := sqlite.NewSessionStore(db)
		stopCleanup := startSessionCleanup(ctx, sessions, logger)
		cleanup := func() {
			stopCleanup()
			_ = db.Close()
		}
		return sqlite.NewUserStore(db), sessions, sqlite.NewTaskStore(db), cleanup, nil

	default:
		logger.Info("storage ready", "driver", "memory")
		logger.Warn("memory storage loses all data on restart")

		sessions := memory.NewSessionStore()
		sessions.StartCleanup(ctx)
		cleanup := func() { sessions.Stop() }
		return memory.NewUserStore(), sessions, memory.NewTaskStore(), cleanup, nil
	}
}

// expiredSessionDeleter is implemented by stores that need periodic
// expiry sweeps instead of per-read filtering.
type expiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// startSessionCleanup sweeps expired sessions every 10 minutes until
// the context is cancelled. The returned function blocks until the
// sweeper has exited.
func startSessionCleanup(ctx context.Context, store expiredSessionDeleter, logger *slog.Logger) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.DeleteExpired(ctx)
				if err != nil {
					logger.Error("session cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
			}
		}
	}()
	return func() { <-done }
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
