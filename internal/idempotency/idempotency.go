// Package idempotency remembers Idempotency-Key headers of order
// submissions in Redis so that a retried request returns the order the
// first attempt created instead of booking twice.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "pending"

// State is the outcome of Begin.
type State int

const (
	// Fresh means the key was unseen and is now reserved by the caller.
	Fresh State = iota
	// InFlight means another request with the key has not finished yet.
	InFlight
	// Done means an order was already created under the key.
	Done
)

// ErrKeyTooLong rejects keys that would bloat Redis.
var ErrKeyTooLong = errors.New("idempotency key longer than 255 characters")

// Store keeps key state per user in Redis.
type Store struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, prefix: "idem:order"}
}

func (s *Store) key(userID uint64, key string) string {
	return fmt.Sprintf("%s:%d:%s", s.prefix, userID, key)
}

// Begin reserves key for userID.  For Done it also returns the id of the
// order created under the key.
func (s *Store) Begin(ctx context.Context, userID uint64, key string) (State, uint64, error) {
	if len(key) > 255 {
		return 0, 0, ErrKeyTooLong
	}
	k := s.key(userID, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
		if err != nil {
			return 0, 0, err
		}
		if ok {
			return Fresh, 0, nil
		}
		val, err := s.rdb.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired between the two calls
		}
		if err != nil {
			return 0, 0, err
		}
		if val == pending {
			return InFlight, 0, nil
		}
		id, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
		}
		return Done, id, nil
	}
	return InFlight, 0, nil
}

// Complete records the order created under key.
func (s *Store) Complete(ctx context.Context, userID uint64, key string, orderID uint64) error {
	return s.rdb.Set(ctx, s.key(userID, key), strconv.FormatUint(orderID, 10), s.ttl).Err()
}

// Abort releases key after a failed attempt so the client may retry.
func (s *Store) Abort(ctx context.Context, userID uint64, key string) error {
	return s.rdb.Del(ctx, s.key(userID, key)).Err()
}
