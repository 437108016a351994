package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecrec/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrByTTL increments a counter and, when ttl is positive, arms its expiry
// in the same round trip. EXPIRE NX keeps the window anchored at the first write.
func (s *Store) IncrByTTL(ctx context.Context, key string, val int64, ttl time.Duration) error {
	cmds := rueidis.Commands{s.b().Incrby().Key(key).Increment(val).Build()}
	if ttl > 0 {
		cmds = append(cmds, s.b().Expire().Key(key).Seconds(int64(ttl.Seconds())).Nx().Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			op := db.OpIncrBy
			if i > 0 {
				op = db.OpExpire
			}
			return &db.Error{Op: op, Err: err}
		}
	}
	return nil
}
