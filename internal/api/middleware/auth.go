// Bearer JWT middleware for the protected API routes.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bonyuta0204/gohan-bot/internal/api/ctxkeys"
	pkgauth "github.com/bonyuta0204/gohan-bot/pkg/auth"
)

// Auth returns a middleware that validates "Authorization: Bearer <token>"
// against secret and injects the token subject into the request context.
// Requests without a valid token get a 401.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := pkgauth.ParseToken(secret, token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.Subject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the token out of "Authorization: Bearer <token>".
// Returns "" for a missing header or a non-Bearer scheme.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
