// Package middleware provides the net/http access gate for the
// authentication core, plus cookie helpers for token transport.
//
// The gate resolves the caller's identity on every request before the
// wrapped handler runs. Browser-facing failures redirect (to the login
// route for missing or invalid tokens, to the refresh route for expired
// ones) while the admin boundary and backend outages answer with JSON
// status codes. The resolved identity is attached to the request context
// and retrieved with [IdentityFromContext].
package middleware
