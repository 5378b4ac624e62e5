package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/turing/internal/config"
	httpAdapter "github.com/aretw0/turing/pkg/adapters/http"
	"github.com/aretw0/turing/pkg/adapters/loam"
	"github.com/aretw0/turing/pkg/adapters/mcp"
	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/adapters/redis"
	"github.com/aretw0/turing/pkg/observability"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewSessionManager builds the session layer: Redis when configured, memory otherwise.
// The returned cleanup closes the store.
func NewSessionManager(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...session.Option) (*session.Manager, func(), error) {
	opts = append([]session.Option{session.WithLogger(logger)}, opts...)

	if cfg.Redis.Addr == "" {
		logger.Info("using in-memory session store")
		return session.NewManager(memory.NewStore(), opts...), func() {}, nil
	}

	store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redis.WithPrefix(cfg.Redis.Prefix+"session:"),
		redis.WithTTL(cfg.Redis.TTL),
	)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("using redis session store", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)

	opts = append(opts, session.WithLocker(redis.NewLocker(store.Client(), cfg.Redis.Prefix)))
	return session.NewManager(store, opts...), func() { store.Close() }, nil
}

// OpenLoader opens the machine directory. A missing directory is not an error:
// the servers then only accept inline descriptions.
func OpenLoader(cfg *config.Config, logger *slog.Logger) ports.MachineLoader {
	if info, err := os.Stat(cfg.MachinesDir); err != nil || !info.IsDir() {
		logger.Warn("machine directory unavailable, only inline machines are accepted", "dir", cfg.MachinesDir)
		return nil
	}
	loader, err := loam.Open(cfg.MachinesDir)
	if err != nil {
		logger.Warn("failed to open machine directory", "dir", cfg.MachinesDir, "err", err)
		return nil
	}
	return loader
}

// NewAPIHandler wires the session manager, metrics and event streams into the HTTP API.
func NewAPIHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, func(), error) {
	metrics := observability.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager(logger)

	mgr, cleanup, err := NewSessionManager(ctx, cfg, logger,
		session.WithSimulatorOptions(SimulatorOptions(cfg, logger, metrics.Hooks())...),
		session.WithChangeListener(streams.Publish),
	)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMaxSteps(cfg.MaxSteps),
		httpAdapter.WithParseOptions(SimulatorOptions(cfg, logger)...),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	}
	if loader := OpenLoader(cfg, logger); loader != nil {
		handlerOpts = append(handlerOpts, httpAdapter.WithLoader(loader))
	}
	return httpAdapter.NewHandler(mgr, handlerOpts...), cleanup, nil
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, cleanup, err := NewAPIHandler(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting turing server", "addr", srv.Addr, "machines_dir", cfg.MachinesDir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received, shutting down server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		logger.Info("turing server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server on stdio.
func ServeMCP(cfg *config.Config, logger *slog.Logger) error {
	opts := []mcp.Option{
		mcp.WithLogger(logger),
		mcp.WithMaxSteps(cfg.MaxSteps),
		mcp.WithSimulatorOptions(SimulatorOptions(cfg, logger)...),
	}
	if loader := OpenLoader(cfg, logger); loader != nil {
		opts = append(opts, mcp.WithLoader(loader))
	}
	return mcp.NewServer(opts...).ServeStdio()
}
