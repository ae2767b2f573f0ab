package authgate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestListSessions(t *testing.T) {
	manager, _, _, done := newTestManager(t, testConfig())
	defer done()
	ctx := context.Background()

	registerTestUser(t, manager, "alice")
	registerTestUser(t, manager, "bob")

	for _, name := range []string{"alice", "bob"} {
		if _, err := manager.Login(ctx, name, "correct-horse"); err != nil {
			t.Fatalf("login %s: %v", name, err)
		}
	}

	infos, err := manager.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}

	names := map[string]bool{}
	for _, info := range infos {
		names[info.Username] = true
	}
	if !names["alice"] || !names["bob"] {
		t.Fatalf("expected alice and bob in listing, got %v", names)
	}
}

func TestListSessionsSkipsOrphanedMarkers(t *testing.T) {
	manager, store, _, done := newTestManager(t, testConfig())
	defer done()
	ctx := context.Background()

	alice := registerTestUser(t, manager, "alice")
	registerTestUser(t, manager, "bob")

	for _, name := range []string{"alice", "bob"} {
		if _, err := manager.Login(ctx, name, "correct-horse"); err != nil {
			t.Fatalf("login %s: %v", name, err)
		}
	}

	// Marker outlives the user row; the listing must skip it, not fail.
	store.remove(alice.ID)

	infos, err := manager.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 session after orphaning, got %d", len(infos))
	}
	if infos[0].Username != "bob" {
		t.Fatalf("expected bob, got %s", infos[0].Username)
	}
}

func TestTerminateSession(t *testing.T) {
	manager, _, _, done := newTestManager(t, testConfig())
	defer done()
	ctx := context.Background()

	user := registerTestUser(t, manager, "alice")

	pair, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := manager.TerminateSession(ctx, user.ID); err != nil {
		t.Fatalf("TerminateSession failed: %v", err)
	}

	if _, err := manager.ResolveIdentity(ctx, pair.AccessToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after termination, got %v", err)
	}
}

func TestTerminateSessionMissing(t *testing.T) {
	manager, _, _, done := newTestManager(t, testConfig())
	defer done()

	err := manager.TerminateSession(context.Background(), uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for absent marker, got %v", err)
	}
}

func TestTerminateSessionAfterLogout(t *testing.T) {
	manager, _, _, done := newTestManager(t, testConfig())
	defer done()
	ctx := context.Background()

	user := registerTestUser(t, manager, "alice")

	pair, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := manager.LogoutByAccessToken(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// The marker is already gone; termination must report that rather than
	// claim a revocation happened.
	err = manager.TerminateSession(ctx, user.ID)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}
}

func TestTerminateAllSessions(t *testing.T) {
	manager, _, _, done := newTestManager(t, testConfig())
	defer done()
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		registerTestUser(t, manager, name)
		if _, err := manager.Login(ctx, name, "correct-horse"); err != nil {
			t.Fatalf("login %s: %v", name, err)
		}
	}

	count, err := manager.TerminateAllSessions(ctx)
	if err != nil {
		t.Fatalf("TerminateAllSessions failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 terminated sessions, got %d", count)
	}

	infos, err := manager.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty listing, got %d", len(infos))
	}

	// Re-login works and is resolvable afterwards.
	pair, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if _, err := manager.ResolveIdentity(ctx, pair.AccessToken); err != nil {
		t.Fatalf("resolve after re-login: %v", err)
	}
}

func TestPing(t *testing.T) {
	manager, _, mr, done := newTestManager(t, testConfig())
	defer done()

	if err := manager.Ping(context.Background()); err != nil {
		t.Fatalf("ping healthy backend: %v", err)
	}

	mr.Close()

	if err := manager.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail after backend close")
	}
}

func TestPingNotReady(t *testing.T) {
	var nilManager *Manager
	if err := nilManager.Ping(context.Background()); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady from nil manager, got %v", err)
	}

	if err := (&Manager{}).Ping(context.Background()); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady without session store, got %v", err)
	}
}
