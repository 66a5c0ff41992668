// Package server owns the application lifecycle: one-shot runs, the cron
// daemon, and the read-only HTTP surface.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"RiskPulse/internal/handler/api"
	"RiskPulse/internal/usecase"
	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
)

// App wires the runner, the optional HTTP server and the cron schedule into
// one lifecycle.
type App struct {
	cfg     *config.Config
	log     *applogger.Logger
	runner  *usecase.Runner
	handler *api.SignalsHandler
	closers []io.Closer

	echo *echo.Echo
	cron *cron.Cron
}

// New creates the app. closers are shut down, in order, when the app stops.
func New(cfg *config.Config, log *applogger.Logger, runner *usecase.Runner, handler *api.SignalsHandler, closers ...io.Closer) *App {
	return &App{cfg: cfg, log: log, runner: runner, handler: handler, closers: closers}
}

// RunOnce executes a single evaluation pass and exits.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.closeAll()
	return a.runner.RunOnce(ctx)
}

// Run starts daemon mode: an immediate pass, then the cron schedule, plus the
// HTTP server when enabled. It blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer a.closeAll()

	if a.cfg.Schedule == "" && !a.cfg.Server.Enabled {
		return a.runner.RunOnce(ctx)
	}

	if err := a.runner.RunOnce(ctx); err != nil {
		a.log.Error("initial run failed", applogger.Error(err))
	}

	if a.cfg.Schedule != "" {
		a.cron = cron.New()
		_, err := a.cron.AddFunc(a.cfg.Schedule, func() {
			if err := a.runner.RunOnce(ctx); err != nil {
				a.log.Error("scheduled run failed", applogger.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("bad schedule %q: %w", a.cfg.Schedule, err)
		}
		a.cron.Start()
		a.log.Info("scheduler started", applogger.String("schedule", a.cfg.Schedule))
	}

	if a.cfg.Server.Enabled {
		a.echo = a.buildEcho()
		go func() {
			addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
			if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
				a.log.Error("http server error", applogger.Error(err))
			}
		}()
		a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	a.handler.RegisterRoutes(e)
	return e
}

func (a *App) shutdown() error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.echo != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.echo.Shutdown(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeAll() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}
}
