// Package kv defines the port for the external key-value store.
//
// The store offers single-key atomicity only: no multi-key transactions, no
// secondary queries. Everything richer (entity records, derived index sets) is
// layered on top of these primitives by internal/kvstore.
package kv

import (
	"context"
	"time"
)

// Store is the set of primitives the service consumes. Get returns
// (nil, nil) for a missing or expired key; MGet returns a slice aligned with
// keys, with nil entries for misses. A ttl of zero means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}
