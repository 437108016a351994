package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/vecrec/internal/db"
)

// kv is the consumer interface over db.KVStore (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByTTL(ctx context.Context, key string, val int64, ttl time.Duration) error
}

// Store keeps quota counters as integer keys that expire after their window.
type Store struct {
	kv kv
}

// New creates a counter store.
func New(s kv) *Store {
	return &Store{kv: s}
}

// Add increments key by n. The TTL is set on first write only.
func (s *Store) Add(ctx context.Context, key string, n int64, ttl time.Duration) error {
	if err := s.kv.IncrByTTL(ctx, key, n, ttl); err != nil {
		return fmt.Errorf("incr %s: %w", key, err)
	}
	return nil
}

// Load returns the counter value, 0 for a missing key.
func (s *Store) Load(ctx context.Context, key string) (int64, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
