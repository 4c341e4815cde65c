package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kbukum/taskflow/config"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/version"
)

// Component loggers registered by NewApp.
const (
	LoggerScheduler = "scheduler"
	LoggerRunner    = "runner"
	LoggerServer    = "server"
)

// App owns the process lifecycle shared by every taskflow command:
// configuration, logging, telemetry and ordered startup and shutdown.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnStop(func(ctx context.Context) error { return flush(ctx) })
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return build(ctx)
//	})
type App struct {
	Name      string
	Version   string
	Cfg       *config.Config
	Logger    *logger.Logger
	Telemetry *observability.Provider

	gracefulTimeout time.Duration
	signals         []os.Signal
	ownsLogger      bool
	started         bool

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from cfg. It applies defaults, validates the
// config and initializes the global logger. When the logging section names
// no file, the build log goes to build.log under the orchestrator log dir.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.Orchestrator.LogDir, "build.log")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	app := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	if app.Version == "" {
		app.Version = version.GetVersionInfo().Version
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.signals != nil {
		app.signals = o.signals
	}

	if o.logger != nil {
		app.Logger = o.logger
		logger.SetGlobalLogger(o.logger)
	} else {
		logger.Init(&cfg.Logging)
		app.Logger = logger.GetGlobalLogger()
		app.ownsLogger = true
	}
	logger.RegisterComponents(app.Logger, LoggerScheduler, LoggerRunner, LoggerServer)

	return app, nil
}

// Metrics returns the orchestrator instruments, or nil before startup.
func (a *App) Metrics() *observability.Metrics {
	if a.Telemetry == nil {
		return nil
	}
	return a.Telemetry.Metrics
}

// Run executes the lifecycle of a long-running service:
// startup → OnStart hooks → OnReady hooks → block on signal → OnStop hooks.
func (a *App) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the same lifecycle as Run. The task's
// context is canceled on SIGINT or SIGTERM; shutdown follows once the task
// returns. A task error wins over a shutdown error.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, a.signals...)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Warn("Received signal, canceling task", logger.Fields(
				"signal", sig.String(),
			))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// startup installs telemetry and runs the OnStart and OnReady hooks.
func (a *App) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Debug("Starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
		"environment", a.Cfg.Environment,
	))

	tp, err := observability.Setup(ctx, a.Cfg.Observability, a.Name, a.Version, a.Cfg.Environment)
	if err != nil {
		return fmt.Errorf("telemetry setup failed: %w", err)
	}
	a.Telemetry = tp
	a.started = true

	if err := runHooks(ctx, a.onStart); err != nil {
		_ = a.stop()
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		_ = a.stop()
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Logger.Debug("Application started", logger.MergeWithDuration(
		logger.Fields("telemetry", a.Cfg.Observability.Enabled),
		time.Since(start),
	))
	return nil
}

// WaitForSignal blocks until a shutdown signal arrives or ctx ends.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, a.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", logger.Fields(
			"signal", sig.String(),
		))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown stops the application. Use it when managing your own lifecycle.
func (a *App) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs the OnStop hooks in reverse order, then flushes telemetry and
// closes the build log, all within the graceful timeout.
func (a *App) stop() error {
	if !a.started {
		return nil
	}
	a.started = false

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooksReverse(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}

	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			a.Logger.Error("Telemetry shutdown error", logger.Fields(logger.FieldError, err.Error()))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}

	a.Logger.Debug("Application shutdown complete")
	if a.ownsLogger {
		_ = a.Logger.Close()
	}
	return shutdownErr
}
