// Package session provides Redis-backed presence markers for authentication hot paths.
//
// # Marker layout
//
// One key per user: <prefix>:<user_id>, value equal to the user id, no TTL. Marker
// lifetime is managed explicitly by login and logout, never by Redis expiry. The
// presence of the marker is what keeps a user's tokens alive; deleting it revokes
// them all at once.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) only. It does NOT interpret JWT
// tokens, look up user records, or enforce authentication policy; those
// responsibilities belong to the Manager.
//
// # What this package must NOT do
//
//   - Import authgate or jwt (no upward imports).
//   - Attach TTLs to markers.
//   - Store anything other than the bare user id in a marker value.
package session
