package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the authentication core.
var ErrRedisUnavailable = errors.New("redis unavailable")

const scanBatchSize = 1000

// Store is a Redis-backed presence-marker store. One marker per user,
// written without TTL, deleted explicitly.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a marker [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":" + userID
}

// Save writes the marker for userID, overwriting any existing one. The
// marker carries no TTL; under concurrent logins the last write wins.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, userID string) error {
	if err := s.redis.Set(ctx, s.key(userID), userID, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the marker value for userID. Absent markers surface the
// untouched redis.Nil so callers can distinguish absence from outage.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, userID string) (string, error) {
	val, err := s.redis.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return val, nil
}

// Exists reports whether a marker is present for userID.
//
//	Performance: 1 Redis EXISTS.
func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Delete removes the marker for userID. Deleting an absent marker is not an
// error; the operation is idempotent.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Remove deletes the marker for userID and reports whether one existed,
// using the DEL reply count so there is no window between check and delete
// under concurrent logout.
//
//	Performance: 1 Redis DEL.
func (s *Store) Remove(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// UserIDs scans the marker key space and returns the user ids of all
// markers present at scan time. The listing is approximate under concurrent
// mutation: markers created or deleted mid-scan may or may not appear.
// This is an admin-only O(n) operation and must not be used in request hot paths.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	pattern := s.prefix + ":*"
	trim := s.prefix + ":"

	var (
		cursor uint64
		ids    []string
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, trim))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return ids, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
