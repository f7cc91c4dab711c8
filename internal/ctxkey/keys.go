// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// ActorKey is the context key type for the authenticated actor.
// Used by the auth middleware to store the actor derived from a verified
// access token, and by handlers to retrieve it.
type ActorKey struct{}

// LoggerKey is the context key type for the enriched logger.
// Used by HTTP middleware to store and retrieve the logger with request_id fields.
type LoggerKey struct{}
