// Package authgate provides a session/token lifecycle authentication core with JWT
// access and refresh tokens, Redis-backed presence markers for server-side revocation,
// and administrative session control.
//
// The package is designed for concurrent server workloads: Manager methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Revocation model
//
// Revocation is presence-based. Login writes a marker keyed by user id with no TTL,
// logout deletes it, and every refresh or identity resolution checks that the marker
// still exists and names the token's subject. Deleting the marker invalidates every
// outstanding token for that user before its signed expiry. A user has at most one
// marker; concurrent logins overwrite it, last write wins.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Manager], [Builder], [Config], the
// [CredentialStore] integration interface, and value types (Identity, TokenPair,
// SessionInfo). Token signing lives in the jwt sub-package, marker persistence in the
// session sub-package; neither imports authgate back.
//
// # What this package must NOT do
//
//   - Expose Redis clients or wire-level token internals in its public API.
//   - Perform I/O outside of Manager methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authgate (no import cycles).
package authgate
