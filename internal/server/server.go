package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	config    *Config
	server    *http.Server
	svc       *Services
	scheduler *Scheduler
}

func New(ctx context.Context, config *Config) (*Server, error) {
	svc, err := NewServices(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create services: %w", err)
	}

	return &Server{
		config:    config,
		svc:       svc,
		scheduler: NewScheduler(svc.Engine, config.Sync.Interval),
		server: &http.Server{
			Addr:              config.HTTP.Addr,
			Handler:           SetupRoutes(&config.HTTP, NewHandlers(svc)),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start serves HTTP and runs the sync schedule until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("server start", "config", s.config)
	defer slog.Info("server stop")

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := s.runHttpServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		s.scheduler.Start(egCtx)
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("server shutdown signal")
		return s.Stop(context.WithoutCancel(ctx))
	})

	return eg.Wait()
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return s.svc.Shutdown(shutdownCtx)
}

func (s *Server) runHttpServer() error {
	if s.config.HTTP.TLS() {
		slog.Info("server start https", "addr", s.config.HTTP.Addr, "cert", s.config.HTTP.CertFile, "key", s.config.HTTP.KeyFile)
		return s.server.ListenAndServeTLS(s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	slog.Info("server start http", "addr", s.config.HTTP.Addr)
	return s.server.ListenAndServe()
}
