package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kmezhov/authgate"
)

var _ authgate.CredentialStore = (*Postgres)(nil)

// Postgres defines a public type used by authgate APIs.
//
// Postgres instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Postgres struct {
	db *DB
}

// NewPostgres creates a Postgres credential store over the given pool.
func NewPostgres(db *DB) *Postgres { return &Postgres{db: db} }

const (
	qUserInsert = `
INSERT INTO users (username, email, password_hash, is_active, is_superuser, is_verified)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at;`

	qUserByID = `
SELECT id, username, email, password_hash, is_active, is_superuser, is_verified, created_at, updated_at
FROM users
WHERE id = $1;`

	qUserByUsername = `
SELECT id, username, email, password_hash, is_active, is_superuser, is_verified, created_at, updated_at
FROM users
WHERE username = $1;`
)

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) Create(ctx context.Context, u *authgate.User) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	if err := s.db.Pool.QueryRow(ctx, qUserInsert,
		u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsSuperuser, u.IsVerified).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return authgate.ErrConflict
		}
		return fmt.Errorf("%w: user insert: %v", authgate.ErrStoreUnavailable, err)
	}
	return nil
}

// GetByID describes the getbyid operation and its observable behavior.
//
// GetByID may return an error when input validation, dependency calls, or security checks fail.
// GetByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) GetByID(ctx context.Context, id uuid.UUID) (*authgate.User, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var u authgate.User
	if err := scanUser(s.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername describes the getbyusername operation and its observable behavior.
//
// GetByUsername may return an error when input validation, dependency calls, or security checks fail.
// GetByUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) GetByUsername(ctx context.Context, username string) (*authgate.User, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var u authgate.User
	if err := scanUser(s.db.Pool.QueryRow(ctx, qUserByUsername, username), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUser(row pgx.Row, out *authgate.User) error {
	var created, updated time.Time
	if err := row.Scan(&out.ID, &out.Username, &out.Email, &out.PasswordHash,
		&out.IsActive, &out.IsSuperuser, &out.IsVerified, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authgate.ErrUserNotFound
		}
		return fmt.Errorf("%w: scan user: %v", authgate.ErrStoreUnavailable, err)
	}
	out.CreatedAt = created
	out.UpdatedAt = updated
	return nil
}
