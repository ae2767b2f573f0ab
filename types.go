package authgate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the persistent account record exchanged with a [CredentialStore].
// PasswordHash is the only credential material; plaintext passwords never
// cross this boundary.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialStore is the interface that callers must implement to integrate
// authgate with their user database. Implementations must return
// [ErrUserNotFound] for absent rows, [ErrConflict] for uniqueness violations
// on Create, and wrap infrastructure faults in [ErrStoreUnavailable].
type CredentialStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// Identity is the read-only view of an authenticated user returned by
// [Manager.ResolveIdentity]. It never carries credential material.
type Identity struct {
	UserID      uuid.UUID
	Username    string
	Email       string
	IsActive    bool
	IsSuperuser bool
	IsVerified  bool
}

// TokenPair holds one access and one refresh token, both signed JWTs over
// the same subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionInfo is a single row of the administrative session listing: the
// marker's user id cross-referenced against the credential store.
type SessionInfo struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
}
