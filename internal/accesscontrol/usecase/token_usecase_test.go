package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
	"github.com/allisson/controlplane/internal/config"
)

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *accessDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Update(ctx context.Context, client *accessDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Get(ctx context.Context, clientID uuid.UUID) (*accessDomain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessDomain.Client), args.Error(1)
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *accessDomain.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*accessDomain.Token, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessDomain.Token), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func newTestTokenUseCase(
	clientRepo *MockClientRepository,
	tokenRepo *MockTokenRepository,
	secretService accessService.SecretService,
) TokenUseCase {
	cfg := &config.Config{AuthTokenExpiration: time.Hour}
	return NewTokenUseCase(cfg, clientRepo, tokenRepo, secretService, accessService.NewTokenService())
}

func activeClient(secretService accessService.SecretService, plainSecret string) *accessDomain.Client {
	hashedSecret, err := secretService.HashSecret(plainSecret)
	if err != nil {
		panic(err)
	}
	return &accessDomain.Client{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     "test-client",
		Secret:   hashedSecret,
		Role:     accessDomain.RoleOperator,
		IsActive: true,
	}
}

func TestTokenUseCase_Issue_Success(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	client := activeClient(secretService, "correct-secret")
	var created *accessDomain.Token
	mockClientRepo.On("Get", ctx, client.ID).Return(client, nil)
	mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.Token")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*accessDomain.Token)
		}).
		Return(nil)

	output, err := useCase.Issue(ctx, &accessDomain.IssueTokenInput{
		ClientID:     client.ID,
		ClientSecret: "correct-secret",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, output.PlainToken)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), output.ExpiresAt, 5*time.Second)
	require.NotNil(t, created)
	assert.NotEqual(t, output.PlainToken, created.TokenHash, "only the hash is stored")
}

func TestTokenUseCase_Issue_WrongSecret(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	client := activeClient(secretService, "correct-secret")
	mockClientRepo.On("Get", ctx, client.ID).Return(client, nil)

	output, err := useCase.Issue(ctx, &accessDomain.IssueTokenInput{
		ClientID:     client.ID,
		ClientSecret: "wrong-secret",
	})

	assert.ErrorIs(t, err, accessDomain.ErrInvalidCredentials)
	assert.Nil(t, output)
	mockTokenRepo.AssertNotCalled(t, "Create")
}

func TestTokenUseCase_Issue_UnknownClientHidesExistence(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	clientID := uuid.Must(uuid.NewV7())
	mockClientRepo.On("Get", ctx, clientID).Return(nil, accessDomain.ErrClientNotFound)

	output, err := useCase.Issue(ctx, &accessDomain.IssueTokenInput{
		ClientID:     clientID,
		ClientSecret: "anything",
	})

	assert.ErrorIs(t, err, accessDomain.ErrInvalidCredentials)
	assert.Nil(t, output)
}

func TestTokenUseCase_Issue_InactiveClient(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	client := activeClient(secretService, "correct-secret")
	client.IsActive = false
	mockClientRepo.On("Get", ctx, client.ID).Return(client, nil)

	output, err := useCase.Issue(ctx, &accessDomain.IssueTokenInput{
		ClientID:     client.ID,
		ClientSecret: "correct-secret",
	})

	assert.ErrorIs(t, err, accessDomain.ErrClientInactive)
	assert.Nil(t, output)
}

func TestTokenUseCase_Authenticate_Success(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	client := activeClient(secretService, "s")
	token := &accessDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: "hash",
		ClientID:  client.ID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	mockTokenRepo.On("GetByTokenHash", ctx, "hash").Return(token, nil)
	mockClientRepo.On("Get", ctx, client.ID).Return(client, nil)

	got, err := useCase.Authenticate(ctx, "hash")

	require.NoError(t, err)
	assert.Equal(t, client.ID, got.ID)
	assert.Equal(t, accessDomain.RoleOperator, got.Role)
}

func TestTokenUseCase_Authenticate_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	token := &accessDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: "hash",
		ClientID:  uuid.Must(uuid.NewV7()),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	mockTokenRepo.On("GetByTokenHash", ctx, "hash").Return(token, nil)

	got, err := useCase.Authenticate(ctx, "hash")

	assert.ErrorIs(t, err, accessDomain.ErrInvalidCredentials)
	assert.Nil(t, got)
	mockClientRepo.AssertNotCalled(t, "Get")
}

func TestTokenUseCase_Authenticate_RevokedToken(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	revokedAt := time.Now().UTC().Add(-time.Minute)
	token := &accessDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: "hash",
		ClientID:  uuid.Must(uuid.NewV7()),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		RevokedAt: &revokedAt,
	}
	mockTokenRepo.On("GetByTokenHash", ctx, "hash").Return(token, nil)

	got, err := useCase.Authenticate(ctx, "hash")

	assert.ErrorIs(t, err, accessDomain.ErrInvalidCredentials)
	assert.Nil(t, got)
}

func TestTokenUseCase_Authenticate_UnknownToken(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	mockTokenRepo.On("GetByTokenHash", ctx, "unknown").Return(nil, accessDomain.ErrTokenNotFound)

	got, err := useCase.Authenticate(ctx, "unknown")

	assert.ErrorIs(t, err, accessDomain.ErrInvalidCredentials)
	assert.Nil(t, got)
}

func TestTokenUseCase_Authenticate_InactiveClient(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	client := activeClient(secretService, "s")
	client.IsActive = false
	token := &accessDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: "hash",
		ClientID:  client.ID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	mockTokenRepo.On("GetByTokenHash", ctx, "hash").Return(token, nil)
	mockClientRepo.On("Get", ctx, client.ID).Return(client, nil)

	got, err := useCase.Authenticate(ctx, "hash")

	assert.ErrorIs(t, err, accessDomain.ErrClientInactive)
	assert.Nil(t, got)
}

func TestTokenUseCase_CleanExpired(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	mockTokenRepo := new(MockTokenRepository)
	secretService := accessService.NewSecretService()
	useCase := newTestTokenUseCase(mockClientRepo, mockTokenRepo, secretService)

	mockTokenRepo.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(7), nil)

	deleted, err := useCase.CleanExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
