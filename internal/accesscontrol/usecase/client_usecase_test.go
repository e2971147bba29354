package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
)

func TestClientUseCase_CreateClient_Success(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	secretService := accessService.NewSecretService()
	useCase := NewClientUseCase(mockClientRepo, secretService)

	var created *accessDomain.Client
	mockClientRepo.On("Create", ctx, mock.AnythingOfType("*domain.Client")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*accessDomain.Client)
		}).
		Return(nil)

	output, err := useCase.CreateClient(ctx, &accessDomain.CreateClientInput{
		Name:     "deploy-bot",
		Role:     accessDomain.RoleOperator,
		IsActive: true,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, output.ID)
	assert.NotEmpty(t, output.PlainSecret)
	require.NotNil(t, created)
	assert.Equal(t, "deploy-bot", created.Name)
	assert.Equal(t, accessDomain.RoleOperator, created.Role)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, output.PlainSecret, created.Secret, "only the hash is stored")
	assert.True(t, secretService.CompareSecret(output.PlainSecret, created.Secret))
}

func TestClientUseCase_CreateClient_InvalidRole(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	secretService := accessService.NewSecretService()
	useCase := NewClientUseCase(mockClientRepo, secretService)

	output, err := useCase.CreateClient(ctx, &accessDomain.CreateClientInput{
		Name:     "deploy-bot",
		Role:     accessDomain.Role("superuser"),
		IsActive: true,
	})

	assert.ErrorIs(t, err, accessDomain.ErrInvalidRole)
	assert.Nil(t, output)
	mockClientRepo.AssertNotCalled(t, "Create")
}

func TestClientUseCase_UpdateClient_Success(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	secretService := accessService.NewSecretService()
	useCase := NewClientUseCase(mockClientRepo, secretService)

	client := activeClient(secretService, "s")
	originalSecret := client.Secret
	mockClientRepo.On("Get", ctx, client.ID).Return(client, nil)

	var updated *accessDomain.Client
	mockClientRepo.On("Update", ctx, mock.AnythingOfType("*domain.Client")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*accessDomain.Client)
		}).
		Return(nil)

	err := useCase.UpdateClient(ctx, client.ID, "renamed-bot", accessDomain.RoleReader, false)

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "renamed-bot", updated.Name)
	assert.Equal(t, accessDomain.RoleReader, updated.Role)
	assert.False(t, updated.IsActive)
	assert.Equal(t, originalSecret, updated.Secret, "secret is immutable on update")
}

func TestClientUseCase_UpdateClient_InvalidRole(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	secretService := accessService.NewSecretService()
	useCase := NewClientUseCase(mockClientRepo, secretService)

	err := useCase.UpdateClient(ctx, uuid.Must(uuid.NewV7()), "bot", accessDomain.Role("root"), true)

	assert.ErrorIs(t, err, accessDomain.ErrInvalidRole)
	mockClientRepo.AssertNotCalled(t, "Get")
	mockClientRepo.AssertNotCalled(t, "Update")
}

func TestClientUseCase_UpdateClient_NotFound(t *testing.T) {
	ctx := context.Background()
	mockClientRepo := new(MockClientRepository)
	secretService := accessService.NewSecretService()
	useCase := NewClientUseCase(mockClientRepo, secretService)

	clientID := uuid.Must(uuid.NewV7())
	mockClientRepo.On("Get", ctx, clientID).Return(nil, accessDomain.ErrClientNotFound)

	err := useCase.UpdateClient(ctx, clientID, "bot", accessDomain.RoleReader, true)

	assert.ErrorIs(t, err, accessDomain.ErrClientNotFound)
	mockClientRepo.AssertNotCalled(t, "Update")
}
