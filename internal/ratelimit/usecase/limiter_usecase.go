package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	apperrors "github.com/allisson/controlplane/internal/errors"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
	"github.com/allisson/controlplane/internal/ratelimit/store"
)

// casMaxAttempts bounds the compare-and-swap retry loop of the bucket
// algorithms under concurrent callers.
const casMaxAttempts = 5

// limiterUseCase implements admission control over an atomic counter store.
// All mutable state lives in the store, so any number of service instances
// can check the same rule concurrently.
type limiterUseCase struct {
	counterStore store.CounterStore
	rules        RuleProvider
	now          func() time.Time
}

// NewLimiterUseCase creates a new limiter use case instance.
func NewLimiterUseCase(counterStore store.CounterStore, rules RuleProvider) LimiterUseCase {
	return &limiterUseCase{
		counterStore: counterStore,
		rules:        rules,
		now:          time.Now,
	}
}

// Check decides whether one request under the named rule is admitted.
// The boundary value is admitted: a request that brings the counter exactly
// to the limit passes, only the one that would exceed it is denied.
func (l *limiterUseCase) Check(
	ctx context.Context,
	ruleName, identity string,
) (*ratelimitDomain.Decision, error) {
	rule, err := l.rules.Get(ctx, ruleName)
	if err != nil {
		return nil, err
	}
	if !rule.Enabled {
		return &ratelimitDomain.Decision{Allowed: true}, nil
	}

	key := counterKey(rule, identity)
	now := l.now().UTC()

	switch rule.Algorithm {
	case ratelimitDomain.AlgorithmFixedWindow:
		return l.fixedWindow(ctx, rule, key, now)
	case ratelimitDomain.AlgorithmSlidingWindow:
		return l.slidingWindow(ctx, rule, key, now)
	case ratelimitDomain.AlgorithmTokenBucket:
		return l.tokenBucket(ctx, rule, key, now)
	case ratelimitDomain.AlgorithmLeakyBucket:
		return l.leakyBucket(ctx, rule, key, now)
	default:
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"unsupported algorithm: "+string(rule.Algorithm),
		)
	}
}

// counterKey partitions counters per rule and identity. Global rules share a
// single counter regardless of the caller.
func counterKey(rule *ratelimitDomain.Rule, identity string) string {
	if rule.Scope == ratelimitDomain.ScopeGlobal {
		identity = "global"
	}
	return fmt.Sprintf("ratelimit:%s:%s", rule.Name, identity)
}

// fixedWindow counts admissions in the window containing now and denies once
// the counter would exceed the limit.
func (l *limiterUseCase) fixedWindow(
	ctx context.Context,
	rule *ratelimitDomain.Rule,
	key string,
	now time.Time,
) (*ratelimitDomain.Decision, error) {
	windowStart := now.Truncate(rule.Window)
	windowKey := fmt.Sprintf("%s:%d", key, windowStart.Unix())

	count, err := l.counterStore.Increment(ctx, windowKey, 2*rule.Window)
	if err != nil {
		return nil, err
	}

	if count <= rule.Limit {
		return &ratelimitDomain.Decision{Allowed: true}, nil
	}
	return &ratelimitDomain.Decision{
		Allowed:           false,
		RetryAfterSeconds: retryAfter(windowStart.Add(rule.Window).Sub(now).Seconds()),
	}, nil
}

// slidingWindow weights the previous window's count by how much of it still
// overlaps a window ending now, approximating a true sliding window without
// per-request logs. Denied requests count toward the window too: the limit
// bounds attempts, not admissions, so hammering a closed limit keeps it
// closed instead of letting a burst through the moment the window slides.
func (l *limiterUseCase) slidingWindow(
	ctx context.Context,
	rule *ratelimitDomain.Rule,
	key string,
	now time.Time,
) (*ratelimitDomain.Decision, error) {
	windowStart := now.Truncate(rule.Window)
	currentKey := fmt.Sprintf("%s:%d", key, windowStart.Unix())
	previousKey := fmt.Sprintf("%s:%d", key, windowStart.Add(-rule.Window).Unix())

	count, err := l.counterStore.Increment(ctx, currentKey, 2*rule.Window)
	if err != nil {
		return nil, err
	}

	previous, err := l.counterStore.GetCounter(ctx, previousKey)
	if err != nil {
		return nil, err
	}

	overlap := 1 - now.Sub(windowStart).Seconds()/rule.Window.Seconds()
	weighted := float64(previous)*overlap + float64(count)

	if weighted <= float64(rule.Limit) {
		return &ratelimitDomain.Decision{Allowed: true}, nil
	}
	return &ratelimitDomain.Decision{
		Allowed:           false,
		RetryAfterSeconds: retryAfter(windowStart.Add(rule.Window).Sub(now).Seconds()),
	}, nil
}

// bucketState is the shared snapshot the bucket algorithms compare-and-swap.
// Level is remaining tokens for the token bucket and queue depth for the
// leaky bucket.
type bucketState struct {
	Level     float64 `json:"level"`
	UpdatedAt int64   `json:"updated_at_ns"`
}

// tokenBucket refills tokens at the rule's rate up to capacity and consumes
// one per admitted request.
func (l *limiterUseCase) tokenBucket(
	ctx context.Context,
	rule *ratelimitDomain.Rule,
	key string,
	now time.Time,
) (*ratelimitDomain.Decision, error) {
	capacity := float64(rule.Capacity())
	rate := rule.RatePerSecond()
	ttl := bucketTTL(rule)

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		current, err := l.counterStore.GetState(ctx, key)
		if err != nil {
			return nil, err
		}

		state := bucketState{Level: capacity, UpdatedAt: now.UnixNano()}
		if current != nil {
			if err := json.Unmarshal(current, &state); err != nil {
				return nil, apperrors.Wrap(err, "failed to decode bucket state")
			}
			elapsed := float64(now.UnixNano()-state.UpdatedAt) / float64(time.Second)
			state.Level = math.Min(capacity, state.Level+elapsed*rate)
			state.UpdatedAt = now.UnixNano()
		}

		decision := &ratelimitDomain.Decision{Allowed: state.Level >= 1}
		if decision.Allowed {
			state.Level--
		} else {
			decision.RetryAfterSeconds = retryAfter((1 - state.Level) / rate)
		}

		next, err := json.Marshal(state)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to encode bucket state")
		}

		swapped, err := l.counterStore.CompareAndSwap(ctx, key, current, next, ttl)
		if err != nil {
			return nil, err
		}
		if swapped {
			return decision, nil
		}
	}

	return nil, ratelimitDomain.ErrStoreContention
}

// leakyBucket drains queue depth at the rule's rate and admits a request only
// when the depth after draining stays within capacity.
func (l *limiterUseCase) leakyBucket(
	ctx context.Context,
	rule *ratelimitDomain.Rule,
	key string,
	now time.Time,
) (*ratelimitDomain.Decision, error) {
	capacity := float64(rule.Capacity())
	rate := rule.RatePerSecond()
	ttl := bucketTTL(rule)

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		current, err := l.counterStore.GetState(ctx, key)
		if err != nil {
			return nil, err
		}

		state := bucketState{UpdatedAt: now.UnixNano()}
		if current != nil {
			if err := json.Unmarshal(current, &state); err != nil {
				return nil, apperrors.Wrap(err, "failed to decode bucket state")
			}
			elapsed := float64(now.UnixNano()-state.UpdatedAt) / float64(time.Second)
			state.Level = math.Max(0, state.Level-elapsed*rate)
			state.UpdatedAt = now.UnixNano()
		}

		decision := &ratelimitDomain.Decision{Allowed: state.Level+1 <= capacity}
		if decision.Allowed {
			state.Level++
		} else {
			decision.RetryAfterSeconds = retryAfter((state.Level + 1 - capacity) / rate)
		}

		next, err := json.Marshal(state)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to encode bucket state")
		}

		swapped, err := l.counterStore.CompareAndSwap(ctx, key, current, next, ttl)
		if err != nil {
			return nil, err
		}
		if swapped {
			return decision, nil
		}
	}

	return nil, ratelimitDomain.ErrStoreContention
}

// bucketTTL keeps bucket state alive long enough to refill or drain fully.
func bucketTTL(rule *ratelimitDomain.Rule) time.Duration {
	rate := rule.RatePerSecond()
	if rate <= 0 {
		return 2 * rule.Window
	}
	full := time.Duration(float64(rule.Capacity())/rate*float64(time.Second)) + rule.Window
	if full < 2*rule.Window {
		return 2 * rule.Window
	}
	return full
}

// retryAfter converts a delay in seconds to a whole-second hint, never below
// one second for a denied request.
func retryAfter(seconds float64) int64 {
	value := int64(math.Ceil(seconds))
	if value < 1 {
		return 1
	}
	return value
}
