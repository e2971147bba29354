// Package store provides the shared counter store backing rate limit
// decisions. All mutable admission state lives here, behind atomic
// primitives, so decisions stay correct under concurrent callers from
// multiple service instances.
package store

import (
	"context"
	"time"
)

// CounterStore is the atomic state store rate limit algorithms run against.
// Window algorithms use the integer counter operations; bucket algorithms
// keep their state as an opaque byte snapshot updated via compare-and-swap.
type CounterStore interface {
	// Increment atomically increments the counter at key and returns the new
	// value. The TTL is applied when the counter is created.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// GetCounter returns the counter at key, or zero when absent.
	GetCounter(ctx context.Context, key string) (int64, error)

	// GetState returns the state snapshot at key, or nil when absent.
	GetState(ctx context.Context, key string) ([]byte, error)

	// CompareAndSwap replaces the state at key with next only if the stored
	// value still equals current (nil current means the key must be absent).
	// It reports whether the swap happened.
	CompareAndSwap(ctx context.Context, key string, current, next []byte, ttl time.Duration) (bool, error)
}
