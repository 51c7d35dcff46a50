// Package orchestrator runs the single transport selected by the process mode.
package orchestrator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"pdf-extractor/internal/config"
	"pdf-extractor/internal/handler"
	"pdf-extractor/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Orchestrator owns the transport for the lifetime of the process.
type Orchestrator struct {
	mode      config.Mode
	container *config.Container
	server    *http.Server
	worker    *worker.Worker
}

// New builds exactly one transport for the container's mode.
func New(c *config.Container) *Orchestrator {
	o := &Orchestrator{mode: c.Config.Mode(), container: c}

	if o.mode == config.ModeAsync {
		q := c.Config.Queue
		o.worker = worker.NewWorker(c.Subscriber, c.Extractor, c.Publisher, worker.Options{
			OutboundTopic:   q.OutboundTopic,
			ErrorTopic:      q.ErrorTopic,
			DeadLetterTopic: q.DeadLetterTopic,
			Concurrency:     q.MaxInFlight,
			RequeueDelay:    q.RequeueDelay,
			PublishTimeout:  q.PublishTimeout,
			MaxAttempts:     q.MaxAttempts,
		}, c.Logger)
		return o
	}

	extractHandler := handler.NewExtractHandler(c.Extractor, c.Logger, c.Config.MaxBodySize)
	o.server = &http.Server{
		Addr:              ":" + c.Config.GetServerPort(),
		Handler:           handler.NewRouter(extractHandler, c.Config.CORSAllowedOrigins, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return o
}

// Mode reports which transport this orchestrator runs.
func (o *Orchestrator) Mode() config.Mode {
	return o.mode
}

// Run blocks until ctx is cancelled, then shuts the transport down.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.container.Logger.Info("Starting", "mode", o.mode.String())

	if o.mode == config.ModeAsync {
		return o.worker.Run(ctx)
	}

	ln, err := net.Listen("tcp", o.server.Addr)
	if err != nil {
		return err
	}
	return o.serve(ctx, ln)
}

func (o *Orchestrator) serve(ctx context.Context, ln net.Listener) error {
	logger := o.container.Logger

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "address", ln.Addr().String())
		if err := o.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", err)
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := o.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
		return err
	}
	logger.Info("Server exited")
	return nil
}
