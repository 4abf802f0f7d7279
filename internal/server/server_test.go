package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bonyuta0204/gohan-bot/internal/infra/sqlite"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q; want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d; want %d", cfg.Port, 8080)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout = %v; want %v", cfg.ReadTimeout, 15*time.Second)
	}
	if cfg.WriteTimeout != 120*time.Second {
		t.Fatalf("WriteTimeout = %v; want %v", cfg.WriteTimeout, 120*time.Second)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("IdleTimeout = %v; want %v", cfg.IdleTimeout, 60*time.Second)
	}
}

func TestNewServer_ConfiguresAddressAndHandler(t *testing.T) {
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	cfg := Config{Host: "127.0.0.1", Port: 18080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}
	s := NewServer(handler, db, cfg)

	if s == nil {
		t.Fatal("NewServer() returned nil")
	}
	if s.http == nil {
		t.Fatal("server.http should not be nil")
	}
	if s.http.Addr != "127.0.0.1:18080" {
		t.Fatalf("Addr = %q; want %q", s.http.Addr, "127.0.0.1:18080")
	}
	if s.http.Handler == nil {
		t.Fatal("Handler should not be nil")
	}
	if s.http.WriteTimeout != 2*time.Second {
		t.Fatalf("WriteTimeout = %v; want %v", s.http.WriteTimeout, 2*time.Second)
	}
}

func TestShutdown_ClosesDatabase(t *testing.T) {
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	s := NewServer(handler, db, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown error = %v", err)
	}

	if err := db.Ping(); err == nil {
		t.Fatal("expected database to be closed after shutdown")
	}
}
