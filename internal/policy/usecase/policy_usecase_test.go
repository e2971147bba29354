package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/controlplane/internal/errors"
	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
	policyService "github.com/allisson/controlplane/internal/policy/service"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) == nil {
		return fn(ctx)
	}
	return args.Error(0)
}

// MockPolicyRepository is a mock implementation of PolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, policy *policyDomain.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) InsertVersion(ctx context.Context, policy *policyDomain.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) UpdateVersioned(ctx context.Context, policy *policyDomain.Policy, expectedVersion uint) error {
	args := m.Called(ctx, policy, expectedVersion)
	return args.Error(0)
}

func (m *MockPolicyRepository) GetCurrent(ctx context.Context, id string) (*policyDomain.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*policyDomain.Policy), args.Error(1)
}

func (m *MockPolicyRepository) GetVersion(ctx context.Context, id string, version uint) (*policyDomain.Policy, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*policyDomain.Policy), args.Error(1)
}

func (m *MockPolicyRepository) List(ctx context.Context, offset, limit int) ([]*policyDomain.Policy, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*policyDomain.Policy), args.Error(1)
}

// MockChangePublisher is a mock implementation of ChangePublisher
type MockChangePublisher struct {
	mock.Mock
}

func (m *MockChangePublisher) Publish(
	ctx context.Context,
	kind propagatorDomain.EntityKind,
	key string,
	version uint64,
	payload []byte,
) error {
	args := m.Called(ctx, kind, key, version, payload)
	return args.Error(0)
}

func newTestPolicyUseCase(
	txManager *MockTxManager,
	policyRepo *MockPolicyRepository,
	publisher *MockChangePublisher,
) PolicyUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPolicyUseCase(txManager, policyRepo, policyService.NewEvaluator(), publisher, logger)
}

func validRules() []policyDomain.Rule {
	return []policyDomain.Rule{
		{
			ID: "allow-ops",
			Predicate: policyDomain.Predicate{
				Type:      policyDomain.PredicateAttributeEquals,
				Attribute: "team",
				Value:     "ops",
			},
			Effect:   policyDomain.EffectAllow,
			Priority: 10,
		},
	}
}

func TestPolicyUseCase_CreatePolicy_Success(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	mockTxManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Policy")).Return(nil)
	mockRepo.On("InsertVersion", ctx, mock.AnythingOfType("*domain.Policy")).Return(nil)
	mockPublisher.On("Publish", ctx, propagatorDomain.KindPolicy, mock.AnythingOfType("string"), uint64(1), mock.AnythingOfType("[]uint8")).Return(nil)

	policy, err := useCase.CreatePolicy(ctx, "deploy-policy", validRules())

	require.NoError(t, err)
	assert.Equal(t, "deploy-policy", policy.Name)
	assert.Equal(t, uint(1), policy.Version)
	assert.NotEqual(t, uuid.Nil, policy.ID)
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestPolicyUseCase_CreatePolicy_InvalidRules(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	policy, err := useCase.CreatePolicy(ctx, "deploy-policy", []policyDomain.Rule{})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Nil(t, policy)
	mockRepo.AssertNotCalled(t, "Create")
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestPolicyUseCase_UpdatePolicy_Success(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	policyID := uuid.Must(uuid.NewV7())
	current := &policyDomain.Policy{
		ID:        policyID,
		Name:      "deploy-policy",
		Version:   2,
		Rules:     validRules(),
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
	}

	mockRepo.On("GetCurrent", ctx, policyID.String()).Return(current, nil)
	mockTxManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	mockRepo.On("UpdateVersioned", ctx, mock.AnythingOfType("*domain.Policy"), uint(2)).Return(nil)
	mockRepo.On("InsertVersion", ctx, mock.AnythingOfType("*domain.Policy")).Return(nil)
	mockPublisher.On("Publish", ctx, propagatorDomain.KindPolicy, policyID.String(), uint64(3), mock.AnythingOfType("[]uint8")).Return(nil)

	policy, err := useCase.UpdatePolicy(ctx, policyID.String(), validRules(), 2)

	require.NoError(t, err)
	assert.Equal(t, uint(3), policy.Version)
	assert.Equal(t, current.CreatedAt, policy.CreatedAt)
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestPolicyUseCase_UpdatePolicy_VersionConflict(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	policyID := uuid.Must(uuid.NewV7())
	current := &policyDomain.Policy{
		ID:      policyID,
		Name:    "deploy-policy",
		Version: 5,
		Rules:   validRules(),
	}

	mockRepo.On("GetCurrent", ctx, policyID.String()).Return(current, nil)
	mockTxManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	mockRepo.On("UpdateVersioned", ctx, mock.AnythingOfType("*domain.Policy"), uint(2)).
		Return(policyDomain.ErrPolicyVersionConflict)

	policy, err := useCase.UpdatePolicy(ctx, policyID.String(), validRules(), 2)

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Nil(t, policy)
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestPolicyUseCase_UpdatePolicy_NotFound(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	mockRepo.On("GetCurrent", ctx, "missing").Return(nil, policyDomain.ErrPolicyNotFound)

	policy, err := useCase.UpdatePolicy(ctx, "missing", validRules(), 1)

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Nil(t, policy)
}

func TestPolicyUseCase_GetPolicy_PinnedVersion(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	policyID := uuid.Must(uuid.NewV7())
	pinned := &policyDomain.Policy{ID: policyID, Name: "deploy-policy", Version: 2, Rules: validRules()}

	mockRepo.On("GetVersion", ctx, policyID.String(), uint(2)).Return(pinned, nil)

	policy, err := useCase.GetPolicy(ctx, policyID.String(), 2)

	require.NoError(t, err)
	assert.Equal(t, uint(2), policy.Version)
	mockRepo.AssertNotCalled(t, "GetCurrent")
}

func TestPolicyUseCase_Evaluate_Success(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	policyID := uuid.Must(uuid.NewV7())
	policy := &policyDomain.Policy{ID: policyID, Name: "deploy-policy", Version: 4, Rules: validRules()}

	mockRepo.On("GetCurrent", ctx, policyID.String()).Return(policy, nil)

	decision, err := useCase.Evaluate(ctx, policyID.String(), 0, policyDomain.EvaluationInput{
		Attributes: map[string]string{"team": "ops"},
	})

	require.NoError(t, err)
	assert.Equal(t, policyDomain.EffectAllow, decision.Effect)
	assert.Equal(t, "allow-ops", decision.MatchedRuleID)
	assert.Equal(t, uint(4), decision.PolicyVersion)
}

func TestPolicyUseCase_Evaluate_NotFoundPassesThrough(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	mockRepo.On("GetCurrent", ctx, "missing").Return(nil, policyDomain.ErrPolicyNotFound)

	decision, err := useCase.Evaluate(ctx, "missing", 0, policyDomain.EvaluationInput{})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Nil(t, decision)
}

func TestPolicyUseCase_Evaluate_CorruptSnapshotFailsClosed(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	mockRepo.On("GetVersion", ctx, "policy-1", uint(7)).
		Return(nil, apperrors.New("unmarshal rules: unexpected end of JSON input"))

	decision, err := useCase.Evaluate(ctx, "policy-1", 7, policyDomain.EvaluationInput{})

	require.NoError(t, err)
	assert.Equal(t, policyDomain.EffectDeny, decision.Effect)
	assert.Empty(t, decision.MatchedRuleID)
	assert.Equal(t, uint(7), decision.PolicyVersion)
}

func TestPolicyUseCase_CreatePolicy_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	mockTxManager := new(MockTxManager)
	mockRepo := new(MockPolicyRepository)
	mockPublisher := new(MockChangePublisher)
	useCase := newTestPolicyUseCase(mockTxManager, mockRepo, mockPublisher)

	mockTxManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Policy")).Return(nil)
	mockRepo.On("InsertVersion", ctx, mock.AnythingOfType("*domain.Policy")).Return(nil)
	mockPublisher.On("Publish", ctx, propagatorDomain.KindPolicy, mock.AnythingOfType("string"), uint64(1), mock.AnythingOfType("[]uint8")).
		Return(apperrors.New("queue full"))

	policy, err := useCase.CreatePolicy(ctx, "deploy-policy", validRules())

	require.NoError(t, err)
	assert.NotNil(t, policy)
}
