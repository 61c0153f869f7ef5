package common

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook runs after a termination signal, before the server stops
// accepting requests. Errors are logged and do not stop the shutdown.
type ShutdownHook func(ctx context.Context) error

// TimeoutConfig holds the server and shutdown timeouts.
type TimeoutConfig struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

var timeoutEnv = []struct {
	name  string
	field func(*TimeoutConfig) *time.Duration
}{
	{"READ_HEADER_TIMEOUT", func(c *TimeoutConfig) *time.Duration { return &c.ReadHeader }},
	{"READ_TIMEOUT", func(c *TimeoutConfig) *time.Duration { return &c.Read }},
	{"WRITE_TIMEOUT", func(c *TimeoutConfig) *time.Duration { return &c.Write }},
	{"IDLE_TIMEOUT", func(c *TimeoutConfig) *time.Duration { return &c.Idle }},
	{"SHUTDOWN_TIMEOUT", func(c *TimeoutConfig) *time.Duration { return &c.Shutdown }},
	{"HOOK_TIMEOUT", func(c *TimeoutConfig) *time.Duration { return &c.Hook }},
}

// LoadTimeoutConfig overrides defaults with whole seconds from the
// environment. Unparsable or non positive values keep the default.
func LoadTimeoutConfig(defaults TimeoutConfig) TimeoutConfig {
	return loadTimeoutConfig(defaults, os.Getenv)
}

func loadTimeoutConfig(cfg TimeoutConfig, getenv func(string) string) TimeoutConfig {
	for _, e := range timeoutEnv {
		if n, err := strconv.Atoi(getenv(e.name)); err == nil && n > 0 {
			*e.field(&cfg) = time.Duration(n) * time.Second
		}
	}
	return cfg
}

// NewServerWithTimeouts applies cfg to base, or to a new server when base is nil.
func NewServerWithTimeouts(base *http.Server, cfg TimeoutConfig) *http.Server {
	if base == nil {
		base = &http.Server{}
	}
	base.ReadHeaderTimeout = cfg.ReadHeader
	base.ReadTimeout = cfg.Read
	base.WriteTimeout = cfg.Write
	base.IdleTimeout = cfg.Idle
	return base
}

// RunServerWithShutdown serves until SIGINT or SIGTERM, runs hooks in order
// and then shuts the server down. Every hook shares the shutdown deadline
// and gets at most cfg.Hook on its own.
func RunServerWithShutdown(logger *zap.Logger, server *http.Server, name string, cfg TimeoutConfig, hooks ...ShutdownHook) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", zap.String("name", name), zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.String("name", name), zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received", zap.String("name", name))
	shutdown(logger, server, cfg, hooks)
}

func shutdown(logger *zap.Logger, server *http.Server, cfg TimeoutConfig, hooks []ShutdownHook) {
	if cfg.Hook <= 0 {
		cfg.Hook = 5 * time.Second
	}
	if cfg.Shutdown <= 0 {
		cfg.Shutdown = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
	defer cancel()

	runHooks(ctx, logger, cfg.Hook, hooks)

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("shutdown complete")
}

func runHooks(ctx context.Context, logger *zap.Logger, timeout time.Duration, hooks []ShutdownHook) {
	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		hookCtx, cancel := context.WithTimeout(ctx, timeout)
		err := hook(hookCtx)
		if errors.Is(hookCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("shutdown hook timed out", zap.Int("hook", i))
		} else if err != nil {
			logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
		cancel()
	}
}
