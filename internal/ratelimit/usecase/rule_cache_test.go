package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// MockRuleRepository is a mock implementation of RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *ratelimitDomain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Update(ctx context.Context, rule *ratelimitDomain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) GetByName(ctx context.Context, name string) (*ratelimitDomain.Rule, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratelimitDomain.Rule), args.Error(1)
}

func (m *MockRuleRepository) List(ctx context.Context, offset, limit int) ([]*ratelimitDomain.Rule, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ratelimitDomain.Rule), args.Error(1)
}

func (m *MockRuleRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func TestRuleCache_Get_ServesFromCacheWithinTTL(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	cache := NewRuleCache(mockRepo, 30*time.Second)

	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	rule := &ratelimitDomain.Rule{Name: "api-writes", Limit: 10, Window: time.Minute, Enabled: true}
	mockRepo.On("GetByName", ctx, "api-writes").Return(rule, nil).Once()

	got, err := cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, rule, got)

	current = current.Add(10 * time.Second)

	got, err = cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, rule, got)
	mockRepo.AssertExpectations(t)
}

func TestRuleCache_Get_RefreshesAfterTTL(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	cache := NewRuleCache(mockRepo, 30*time.Second)

	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	stale := &ratelimitDomain.Rule{Name: "api-writes", Limit: 10, Window: time.Minute, Enabled: true}
	updated := &ratelimitDomain.Rule{Name: "api-writes", Limit: 20, Window: time.Minute, Enabled: true}
	mockRepo.On("GetByName", ctx, "api-writes").Return(stale, nil).Once()
	mockRepo.On("GetByName", ctx, "api-writes").Return(updated, nil).Once()

	got, err := cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Limit)

	current = current.Add(time.Minute)

	got, err = cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Limit)
	mockRepo.AssertExpectations(t)
}

func TestRuleCache_Get_DoesNotCacheNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	cache := NewRuleCache(mockRepo, 30*time.Second)

	rule := &ratelimitDomain.Rule{Name: "new-rule", Limit: 5, Window: time.Minute, Enabled: true}
	mockRepo.On("GetByName", ctx, "new-rule").Return(nil, ratelimitDomain.ErrRuleNotFound).Once()
	mockRepo.On("GetByName", ctx, "new-rule").Return(rule, nil).Once()

	_, err := cache.Get(ctx, "new-rule")
	assert.Error(t, err)

	// A rule created right after the miss is served immediately.
	got, err := cache.Get(ctx, "new-rule")
	require.NoError(t, err)
	assert.Equal(t, rule, got)
	mockRepo.AssertExpectations(t)
}

func TestRuleCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	cache := NewRuleCache(mockRepo, time.Hour)

	stale := &ratelimitDomain.Rule{Name: "api-writes", Limit: 10, Window: time.Minute, Enabled: true}
	updated := &ratelimitDomain.Rule{Name: "api-writes", Limit: 20, Window: time.Minute, Enabled: true}
	mockRepo.On("GetByName", ctx, "api-writes").Return(stale, nil).Once()
	mockRepo.On("GetByName", ctx, "api-writes").Return(updated, nil).Once()

	got, err := cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Limit)

	cache.Invalidate("api-writes")

	got, err = cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Limit)
	mockRepo.AssertExpectations(t)
}
