package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/config"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

// Server knows how to serve a finished audit report over http.
type Server struct {
	logger *zap.Logger
	config *config.Server
	report entities.Report
}

// NewServer returns new Server that will serve report using passed
// config. To start serving requests call Server.Serve.
func NewServer(logger *zap.Logger, config *config.AppConfig, report entities.Report) (*Server, error) {
	return &Server{
		logger: logger,
		config: &config.HTTP,
		report: report,
	}, nil
}

// Serve listens on the configured address and answers with the report
// captured at construction until ctx is done, then shuts down within
// a short grace period.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port)),
		Handler:           s.router(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	e := make(chan error, 1)
	go func() {
		e <- srv.ListenAndServe()
	}()

	s.logger.Info(
		"HTTP server is running",
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Millisecond*200)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case err := <-e:
		return err
	}
}
