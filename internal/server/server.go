// Package server runs the HTTP and gRPC listeners and the background loops
// until the context ends, then shuts everything down gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/app"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/grpc"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// ShutdownTimeout bounds the graceful HTTP drain.
const ShutdownTimeout = 15 * time.Second

// Options configures Run.
type Options struct {
	HTTPPort string
	GRPCPort string
	Handler  http.Handler
	Probe    grpc.Probe
	Runners  []app.Runner
}

// Run blocks until ctx is cancelled or the HTTP listener fails.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var grpcSrv *grpc.Server
	if opts.GRPCPort != "" {
		s, err := grpc.Start(opts.GRPCPort, opts.Probe)
		if err != nil {
			return err
		}
		grpcSrv = s
	}

	var wg sync.WaitGroup
	for _, r := range opts.Runners {
		wg.Add(1)
		go func(r app.Runner) {
			defer wg.Done()
			logger.Info("background runner started", "runner", r.Name)
			r.Run(ctx)
			logger.Info("background runner stopped", "runner", r.Name)
		}(r)
	}

	srv := &http.Server{
		Addr:              ":" + opts.HTTPPort,
		Handler:           opts.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http: %w", err)
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = err
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}

	cancel()
	wg.Wait()
	return runErr
}
