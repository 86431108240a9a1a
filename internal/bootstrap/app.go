package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/outfit-recommender/internal/infra/config"
	"github.com/yanqian/outfit-recommender/internal/infra/queue"
)

const defaultShutdownTimeout = 10 * time.Second

// App encapsulates the HTTP server and background worker lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	jobs   queue.HandlerQueue
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, jobs queue.HandlerQueue) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, jobs: jobs}
}

// Run starts the HTTP server and blocks until shutdown. Pending
// replenishment jobs are drained after the server stops accepting requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		timeout := a.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		serverErr := a.server.Shutdown(shutdownCtx)
		return errors.Join(serverErr, a.closeJobs(shutdownCtx))
	case err := <-errCh:
		closeCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		closeErr := a.closeJobs(closeCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return closeErr
		}
		return errors.Join(err, closeErr)
	}
}

func (a *App) closeJobs(ctx context.Context) error {
	if a.jobs == nil {
		return nil
	}
	if err := a.jobs.Close(ctx); err != nil {
		a.logger.Warn("job queue did not drain cleanly", "error", err)
		return err
	}
	a.logger.Info("job queue drained")
	return nil
}
