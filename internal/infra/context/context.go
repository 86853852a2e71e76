// Package context carries request-scoped values (trace and session) through
// a context.Context without exposing the keys.
package context

type contextKey string
