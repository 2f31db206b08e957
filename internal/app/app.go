// Package app ties the composed server process together: the HTTP
// server, the telemetry runtime, and graceful shutdown.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aki-13627/animalia/internal/config"
	"github.com/aki-13627/animalia/internal/observability"
)

const shutdownGrace = 15 * time.Second

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *http.Server
	Runtime *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Runtime: runtime}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// and flushes telemetry.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	a.Logger.Info("shutting down")
	err := a.Server.Shutdown(shutdownCtx)
	if telErr := a.Runtime.Shutdown(shutdownCtx); telErr != nil {
		a.Logger.Warn("telemetry shutdown", slog.String("error", telErr.Error()))
	}
	return err
}
