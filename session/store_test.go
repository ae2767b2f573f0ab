package session

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "session")
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestSaveGetMarker(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "u-1"); err != nil {
		t.Fatalf("save marker: %v", err)
	}

	val, err := store.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get marker: %v", err)
	}
	if val != "u-1" {
		t.Fatalf("expected marker value u-1, got %q", val)
	}
}

func TestMarkerHasNoTTL(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()

	if err := store.Save(context.Background(), "u-1"); err != nil {
		t.Fatalf("save marker: %v", err)
	}

	if ttl := mr.TTL("session:u-1"); ttl != 0 {
		t.Fatalf("expected marker without TTL, got %v", ttl)
	}
}

func TestGetMissingMarkerReturnsRedisNil(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()

	_, err := store.Get(context.Background(), "ghost")
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for missing marker, got %v", err)
	}
}

func TestSaveOverwritesExistingMarker(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "u-1"); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, "u-1"); err != nil {
		t.Fatalf("second save: %v", err)
	}

	exists, err := store.Exists(ctx, "u-1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected marker to exist after overwrite")
	}
}

func TestDeleteMarkerIdempotent(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "u-1"); err != nil {
		t.Fatalf("save marker: %v", err)
	}
	if err := store.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	exists, err := store.Exists(ctx, "u-1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected marker to be gone after delete")
	}
}

func TestRemoveReportsPresence(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "u-1"); err != nil {
		t.Fatalf("save marker: %v", err)
	}

	removed, err := store.Remove(ctx, "u-1")
	if err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if !removed {
		t.Fatal("expected first remove to report an existing marker")
	}

	removed, err = store.Remove(ctx, "u-1")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to report an absent marker")
	}
}

func TestUserIDsScansPrefix(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"u-1", "u-2", "u-3"} {
		if err := store.Save(ctx, id); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	// Keys outside the prefix must not leak into the listing.
	mr.Set("other:u-9", "u-9")

	ids, err := store.UserIDs(ctx)
	if err != nil {
		t.Fatalf("user ids: %v", err)
	}

	sort.Strings(ids)
	want := []string{"u-1", "u-2", "u-3"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d: %v", len(want), len(ids), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, ids)
		}
	}
}

func TestPingReportsOutage(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()

	if _, err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping healthy backend: %v", err)
	}

	mr.Close()

	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable after close, got %v", err)
	}
}
