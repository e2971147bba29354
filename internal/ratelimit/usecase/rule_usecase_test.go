package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/controlplane/internal/errors"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

func newTestRuleUseCase(mockRepo *MockRuleRepository, cache *RuleCache) RuleUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRuleUseCase(mockRepo, cache, logger)
}

func TestRuleUseCase_CreateRule_Success(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	useCase := newTestRuleUseCase(mockRepo, NewRuleCache(mockRepo, time.Minute))

	rule := &ratelimitDomain.Rule{
		Name:      "api-writes",
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     10,
		Window:    time.Minute,
		Enabled:   true,
	}
	mockRepo.On("Create", ctx, rule).Return(nil)

	err := useCase.CreateRule(ctx, rule)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestRuleUseCase_CreateRule_DuplicateName(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	useCase := newTestRuleUseCase(mockRepo, NewRuleCache(mockRepo, time.Minute))

	rule := &ratelimitDomain.Rule{Name: "api-writes", Limit: 10, Window: time.Minute}
	mockRepo.On("Create", ctx, rule).Return(ratelimitDomain.ErrRuleExists)

	err := useCase.CreateRule(ctx, rule)

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRuleUseCase_UpdateRule_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	cache := NewRuleCache(mockRepo, time.Hour)
	useCase := newTestRuleUseCase(mockRepo, cache)

	stale := &ratelimitDomain.Rule{Name: "api-writes", Limit: 10, Window: time.Minute, Enabled: true}
	updated := &ratelimitDomain.Rule{Name: "api-writes", Limit: 20, Window: time.Minute, Enabled: true}

	mockRepo.On("GetByName", ctx, "api-writes").Return(stale, nil).Once()
	mockRepo.On("Update", ctx, updated).Return(nil)
	mockRepo.On("GetByName", ctx, "api-writes").Return(updated, nil).Once()

	// Prime the cache, then update: the next cache read must hit the
	// repository again.
	_, err := cache.Get(ctx, "api-writes")
	require.NoError(t, err)

	err = useCase.UpdateRule(ctx, updated)
	require.NoError(t, err)

	got, err := cache.Get(ctx, "api-writes")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Limit)
	mockRepo.AssertExpectations(t)
}

func TestRuleUseCase_DeleteRule_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	cache := NewRuleCache(mockRepo, time.Hour)
	useCase := newTestRuleUseCase(mockRepo, cache)

	rule := &ratelimitDomain.Rule{Name: "api-writes", Limit: 10, Window: time.Minute, Enabled: true}
	mockRepo.On("GetByName", ctx, "api-writes").Return(rule, nil).Once()
	mockRepo.On("Delete", ctx, "api-writes").Return(nil)
	mockRepo.On("GetByName", ctx, "api-writes").Return(nil, ratelimitDomain.ErrRuleNotFound).Once()

	_, err := cache.Get(ctx, "api-writes")
	require.NoError(t, err)

	err = useCase.DeleteRule(ctx, "api-writes")
	require.NoError(t, err)

	_, err = cache.Get(ctx, "api-writes")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestRuleUseCase_GetRule_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRuleRepository)
	useCase := newTestRuleUseCase(mockRepo, NewRuleCache(mockRepo, time.Minute))

	mockRepo.On("GetByName", ctx, "missing").Return(nil, ratelimitDomain.ErrRuleNotFound)

	rule, err := useCase.GetRule(ctx, "missing")

	assert.Error(t, err)
	assert.Nil(t, rule)
}
