package credstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kmezhov/authgate"
)

var _ authgate.CredentialStore = (*Memory)(nil)

// Memory is an in-process credential store for tests and examples. It holds
// everything in maps guarded by a RWMutex and assigns ids locally; it must
// not be used as a durable backend.
type Memory struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*authgate.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
}

// NewMemory creates an empty in-memory credential store.
func NewMemory() *Memory {
	return &Memory{
		byID:       make(map[uuid.UUID]*authgate.User),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
	}
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) Create(_ context.Context, u *authgate.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return authgate.ErrConflict
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return authgate.ErrConflict
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	s.byID[u.ID] = &stored
	s.byUsername[u.Username] = u.ID
	s.byEmail[u.Email] = u.ID

	return nil
}

// GetByID describes the getbyid operation and its observable behavior.
//
// GetByID may return an error when input validation, dependency calls, or security checks fail.
// GetByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) GetByID(_ context.Context, id uuid.UUID) (*authgate.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, authgate.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// GetByUsername describes the getbyusername operation and its observable behavior.
//
// GetByUsername may return an error when input validation, dependency calls, or security checks fail.
// GetByUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) GetByUsername(_ context.Context, username string) (*authgate.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, authgate.ErrUserNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

// SetSuperuser flips the superuser flag on an existing account. Primarily
// used by tests and bootstrap tooling.
func (s *Memory) SetSuperuser(id uuid.UUID, superuser bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return authgate.ErrUserNotFound
	}
	u.IsSuperuser = superuser
	u.UpdatedAt = time.Now().UTC()
	return nil
}
