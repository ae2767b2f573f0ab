// Package credstore provides credential store backends for the
// authentication core.
//
// Two implementations are included: a Postgres store backed by a pgx
// connection pool for production use, and an in-memory store for tests and
// examples. Both honor the same error contract: a missing user is reported
// as authgate.ErrUserNotFound, a duplicate username or email as
// authgate.ErrConflict, and any backend fault is wrapped in
// authgate.ErrStoreUnavailable.
package credstore
