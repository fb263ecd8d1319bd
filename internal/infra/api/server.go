package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"sandbox-billing/internal/config"

	"github.com/rs/zerolog"
)

// Server owns the listening http.Server and its lifecycle.
type Server struct {
	server *http.Server
	log    *zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zerolog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: logger,
	}
}

func (s *Server) Addr() string { return s.server.Addr }

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
