package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/controlplane/internal/errors"
)

// incrementScript increments a counter and applies the TTL only on creation,
// so every request in a window shares the window's expiry.
var incrementScript = redis.NewScript(`
local value = redis.call("INCR", KEYS[1])
if value == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return value
`)

// compareAndSwapScript replaces the value only if it still matches the
// caller's snapshot. An empty expected value means the key must be absent.
var compareAndSwapScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if (current == false and ARGV[1] == "") or current == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// RedisCounterStore is a CounterStore backed by a shared Redis instance.
// Lua scripts keep each operation atomic per key, which is what makes
// decisions correct across service instances.
type RedisCounterStore struct {
	client redis.UniversalClient
}

// NewRedisCounterStore creates a counter store on top of an existing client.
func NewRedisCounterStore(client redis.UniversalClient) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// Increment atomically increments the counter at key.
func (r *RedisCounterStore) Increment(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (int64, error) {
	value, err := incrementScript.Run(ctx, r.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to increment counter")
	}
	return value, nil
}

// GetCounter returns the counter at key, or zero when absent.
func (r *RedisCounterStore) GetCounter(ctx context.Context, key string) (int64, error) {
	value, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get counter")
	}
	return value, nil
}

// GetState returns the state snapshot at key, or nil when absent.
func (r *RedisCounterStore) GetState(ctx context.Context, key string) ([]byte, error) {
	state, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get state")
	}
	return state, nil
}

// CompareAndSwap replaces the state at key only if it still equals current.
func (r *RedisCounterStore) CompareAndSwap(
	ctx context.Context,
	key string,
	current, next []byte,
	ttl time.Duration,
) (bool, error) {
	swapped, err := compareAndSwapScript.Run(
		ctx,
		r.client,
		[]string{key},
		string(current),
		string(next),
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to compare-and-swap state")
	}
	return swapped == 1, nil
}
