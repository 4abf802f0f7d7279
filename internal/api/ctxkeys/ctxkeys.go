// Package ctxkeys holds the shared context keys for the API layer.
// A leaf package so middleware and handlers agree on key type and value
// without importing each other.
package ctxkeys

import "context"

// Key is the unexported named type for all API context keys. A named type
// keeps context.Value lookups from colliding with plain string keys.
type Key string

// Subject is the context key for the authenticated caller, injected by the
// auth middleware from JWT claims.
const Subject Key = "subject"

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// GetSubject retrieves the authenticated caller from context. Returns ""
// when the request went through an unauthenticated route.
func GetSubject(ctx context.Context) string {
	sub, _ := ctx.Value(Subject).(string)
	return sub
}
