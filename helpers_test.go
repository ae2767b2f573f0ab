package authgate

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret")
	cfg.Password.Cost = bcrypt.MinCost
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = true
	return cfg
}

// mockCredentialStore is an in-memory CredentialStore for manager tests.
type mockCredentialStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*User
	byUsername map[string]uuid.UUID

	failWith error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{
		byID:       make(map[uuid.UUID]*User),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *mockCredentialStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, exists := s.byUsername[u.Username]; exists {
		return ErrConflict
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := *u
	s.byID[u.ID] = &stored
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *mockCredentialStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *mockCredentialStore) GetByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

func (s *mockCredentialStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byUsername, u.Username)
		delete(s.byID, id)
	}
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *mockCredentialStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, rdb := newTestRedis(t)
	store := newMockCredentialStore()

	manager, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return manager, store, mr, func() {
		manager.Close()
		rdb.Close()
		mr.Close()
	}
}

func registerTestUser(t *testing.T, m *Manager, username string) *User {
	t.Helper()
	u, err := m.Register(context.Background(), username, username+"@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}
