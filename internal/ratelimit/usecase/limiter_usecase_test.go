package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/controlplane/internal/errors"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
	"github.com/allisson/controlplane/internal/ratelimit/store"
)

// stubRuleProvider serves a single fixed rule.
type stubRuleProvider struct {
	rule *ratelimitDomain.Rule
	err  error
}

func (s *stubRuleProvider) Get(ctx context.Context, name string) (*ratelimitDomain.Rule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rule, nil
}

// testClock is a settable clock so window math is deterministic.
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time { return c.current }

func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestLimiter(rule *ratelimitDomain.Rule) (LimiterUseCase, *testClock) {
	clock := &testClock{current: time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)}
	useCase := NewLimiterUseCase(store.NewMemoryCounterStore(), &stubRuleProvider{rule: rule})
	useCase.(*limiterUseCase).now = clock.Now
	return useCase, clock
}

func TestLimiterUseCase_Check_FixedWindow(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "api-writes",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     3,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, _ := newTestLimiter(rule)

	// The boundary request that brings the counter exactly to the limit passes.
	for i := 0; i < 3; i++ {
		decision, err := useCase.Check(ctx, "api-writes", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should be admitted", i+1)
	}

	decision, err := useCase.Check(ctx, "api-writes", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, int64(1))
}

func TestLimiterUseCase_Check_FixedWindowResetsOnNewWindow(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "api-writes",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     1,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, clock := newTestLimiter(rule)

	decision, err := useCase.Check(ctx, "api-writes", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = useCase.Check(ctx, "api-writes", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	clock.Advance(time.Minute)

	decision, err = useCase.Check(ctx, "api-writes", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiterUseCase_Check_FixedWindowPartitionsByIdentity(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "api-writes",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     1,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, _ := newTestLimiter(rule)

	decision, err := useCase.Check(ctx, "api-writes", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = useCase.Check(ctx, "api-writes", "client-b")
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "a different identity gets its own counter")
}

func TestLimiterUseCase_Check_GlobalScopeSharesCounter(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "cluster-wide",
		Scope:     ratelimitDomain.ScopeGlobal,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     1,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, _ := newTestLimiter(rule)

	decision, err := useCase.Check(ctx, "cluster-wide", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = useCase.Check(ctx, "cluster-wide", "client-b")
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "global rules share one counter across identities")
}

func TestLimiterUseCase_Check_SlidingWindowWeighsPreviousWindow(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "api-reads",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmSlidingWindow,
		Limit:     10,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, clock := newTestLimiter(rule)

	// Fill the first window: 10 admitted, the 11th denied (still counted).
	for i := 0; i < 10; i++ {
		decision, err := useCase.Check(ctx, "api-reads", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
	decision, err := useCase.Check(ctx, "api-reads", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// Halfway into the next window the previous 11 requests weigh 5.5, so
	// only 4 more fit under the limit of 10.
	clock.current = clock.current.Truncate(time.Minute).Add(time.Minute + 30*time.Second)

	for i := 0; i < 4; i++ {
		decision, err := useCase.Check(ctx, "api-reads", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d in the new window should be admitted", i+1)
	}

	decision, err = useCase.Check(ctx, "api-reads", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, int64(1))
}

func TestLimiterUseCase_Check_SlidingWindowCountsDeniedAttempts(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "api-reads",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmSlidingWindow,
		Limit:     2,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, clock := newTestLimiter(rule)

	// client-a exhausts its limit and keeps hammering: 2 admitted plus 3
	// denied attempts all land in the window counter. client-b stops at its
	// 2 admissions.
	for i := 0; i < 5; i++ {
		decision, err := useCase.Check(ctx, "api-reads", "client-a")
		require.NoError(t, err)
		assert.Equal(t, i < 2, decision.Allowed)
	}
	for i := 0; i < 2; i++ {
		decision, err := useCase.Check(ctx, "api-reads", "client-b")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	// Halfway into the next window client-b's previous count of 2 weighs 1,
	// leaving room under the limit. client-a's 5 attempts weigh 2.5, so the
	// denied attempts keep its limit closed.
	clock.current = clock.current.Truncate(time.Minute).Add(time.Minute + 30*time.Second)

	decision, err := useCase.Check(ctx, "api-reads", "client-b")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = useCase.Check(ctx, "api-reads", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestLimiterUseCase_Check_TokenBucketBurstThenRefill(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:          "burst-api",
		Scope:         ratelimitDomain.ScopeUser,
		Algorithm:     ratelimitDomain.AlgorithmTokenBucket,
		Limit:         6,
		Window:        time.Minute,
		BurstCapacity: 3,
		Enabled:       true,
	}
	useCase, clock := newTestLimiter(rule)

	// A fresh bucket admits a full burst of 3.
	for i := 0; i < 3; i++ {
		decision, err := useCase.Check(ctx, "burst-api", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "burst request %d should be admitted", i+1)
	}

	// Empty bucket: next token arrives in 1/rate = 10 seconds.
	decision, err := useCase.Check(ctx, "burst-api", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(10), decision.RetryAfterSeconds)

	clock.Advance(10 * time.Second)

	decision, err = useCase.Check(ctx, "burst-api", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "refilled token should admit one request")

	decision, err = useCase.Check(ctx, "burst-api", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestLimiterUseCase_Check_TokenBucketCapsAtCapacity(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:          "burst-api",
		Scope:         ratelimitDomain.ScopeUser,
		Algorithm:     ratelimitDomain.AlgorithmTokenBucket,
		Limit:         60,
		Window:        time.Minute,
		BurstCapacity: 2,
		Enabled:       true,
	}
	useCase, clock := newTestLimiter(rule)

	decision, err := useCase.Check(ctx, "burst-api", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// An hour idle refills at most to capacity, not to limit.
	clock.Advance(time.Hour)

	for i := 0; i < 2; i++ {
		decision, err = useCase.Check(ctx, "burst-api", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err = useCase.Check(ctx, "burst-api", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestLimiterUseCase_Check_LeakyBucketDrains(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "smooth-api",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmLeakyBucket,
		Limit:     2,
		Window:    2 * time.Second,
		Enabled:   true,
	}
	useCase, clock := newTestLimiter(rule)

	// Capacity defaults to the limit: 2 requests queue, the 3rd overflows.
	for i := 0; i < 2; i++ {
		decision, err := useCase.Check(ctx, "smooth-api", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := useCase.Check(ctx, "smooth-api", "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(1), decision.RetryAfterSeconds)

	// Draining at 1/s frees one slot per second.
	clock.Advance(time.Second)

	decision, err = useCase.Check(ctx, "smooth-api", "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiterUseCase_Check_DisabledRuleAdmitsEverything(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "paused",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     1,
		Window:    time.Minute,
		Enabled:   false,
	}
	useCase, _ := newTestLimiter(rule)

	for i := 0; i < 5; i++ {
		decision, err := useCase.Check(ctx, "paused", "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
}

func TestLimiterUseCase_Check_UnknownRule(t *testing.T) {
	ctx := context.Background()
	useCase := NewLimiterUseCase(
		store.NewMemoryCounterStore(),
		&stubRuleProvider{err: ratelimitDomain.ErrRuleNotFound},
	)

	decision, err := useCase.Check(ctx, "missing", "client-a")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Nil(t, decision)
}

func TestLimiterUseCase_Check_UnsupportedAlgorithm(t *testing.T) {
	ctx := context.Background()
	rule := &ratelimitDomain.Rule{
		Name:      "bad",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.Algorithm("quantum"),
		Limit:     1,
		Window:    time.Minute,
		Enabled:   true,
	}
	useCase, _ := newTestLimiter(rule)

	decision, err := useCase.Check(ctx, "bad", "client-a")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Nil(t, decision)
}
