// HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server and database.
type Server struct {
	config Config
	db     *sql.DB
	http   *http.Server
}

// NewServer creates a new HTTP server around an already-wired handler.
func NewServer(handler http.Handler, db *sql.DB, config Config) *Server {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config: config,
		db:     db,
		http:   httpServer,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Shutdown gracefully shuts down the server and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}

	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "database close")
	}

	log.Info().Msg("server shutdown complete")
	return nil
}
