package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore is an injected TTL cache keyed by acting identity. It
// replaces an in-process cooldown map so multiple replicas share the same
// view; entries expire on their own.
type CooldownStore interface {
	// Touch marks the key active for the TTL and reports whether it was
	// already active.
	Touch(ctx context.Context, key string) (active bool, err error)
}

type redisCooldownStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCooldownStore(client *redis.Client, ttl time.Duration) CooldownStore {
	return &redisCooldownStore{
		client: client,
		ttl:    ttl,
		prefix: "cooldown",
	}
}

func (s *redisCooldownStore) Touch(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+":"+key, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("touch cooldown: %w", err)
	}
	return !ok, nil
}
