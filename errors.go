package authgate

import "errors"

var (
	// ErrNotAuthenticated is an exported constant or variable used by the authentication core.
	ErrNotAuthenticated = errors.New("invalid username or password")
	// ErrInvalidTokenType is an exported constant or variable used by the authentication core.
	ErrInvalidTokenType = errors.New("invalid token type")
	// ErrTokenMissing is an exported constant or variable used by the authentication core.
	ErrTokenMissing = errors.New("token missing")
	// ErrSessionNotFound is an exported constant or variable used by the authentication core.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound is an exported constant or variable used by the authentication core.
	ErrUserNotFound = errors.New("user not found")
	// ErrConflict is an exported constant or variable used by the authentication core.
	ErrConflict = errors.New("username or email already registered")
	// ErrForbidden is an exported constant or variable used by the authentication core.
	ErrForbidden = errors.New("admin privileges required")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication core.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrLoginRateLimited is an exported constant or variable used by the authentication core.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrManagerNotReady is an exported constant or variable used by the authentication core.
	ErrManagerNotReady = errors.New("manager not initialized")
)
