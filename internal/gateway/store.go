package gateway

import (
	"context"
	"time"
)

// Store is the durable key-value backend shared by all gateway instances.
// Everything that must survive a restart or be visible to another instance
// goes through here; the in-memory directory is a same-process fast path.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error)

	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SCard(ctx context.Context, key string) (int64, error)

	XAdd(ctx context.Context, stream string, maxLen int64, values map[string]string) (string, error)
}
