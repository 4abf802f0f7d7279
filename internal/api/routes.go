// Route registration and go-chi router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bonyuta0204/gohan-bot/internal/api/handlers"
	apmiddleware "github.com/bonyuta0204/gohan-bot/internal/api/middleware"
)

// Deps are the wired services the router exposes over HTTP.
type Deps struct {
	// Conversation runs one assistant turn per message.
	Conversation handlers.ConversationService
	// SlackEvents serves the Slack Events API callback. Nil leaves the
	// Slack surface unmounted.
	SlackEvents http.Handler
	// JWTSecret protects /api/v1/* with bearer auth. Empty leaves the
	// API open, for local use.
	JWTSecret string
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check, unauthenticated, used by probes.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Slack verifies itself by request signature, not by bearer token.
	if deps.SlackEvents != nil {
		r.Post("/slack/events", deps.SlackEvents.ServeHTTP)
	}

	messageHandler := handlers.NewMessageHandler(deps.Conversation)
	r.Route("/api/v1", func(r chi.Router) {
		if deps.JWTSecret != "" {
			r.Use(apmiddleware.Auth(deps.JWTSecret))
		}
		r.Post("/messages", messageHandler.PostMessage) // POST /api/v1/messages
	})

	return r
}
