package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
)

// clientUseCase implements ClientUseCase for managing API clients.
type clientUseCase struct {
	clientRepo    ClientRepository
	secretService accessService.SecretService
}

// CreateClient creates a new client with a server-generated secret.
// SECURITY: The plain secret is only returned once and is never stored.
func (c *clientUseCase) CreateClient(
	ctx context.Context,
	input *accessDomain.CreateClientInput,
) (*accessDomain.CreateClientOutput, error) {
	if !input.Role.IsValid() {
		return nil, accessDomain.ErrInvalidRole
	}

	plainSecret, hashedSecret, err := c.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &accessDomain.Client{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      input.Name,
		Secret:    hashedSecret,
		Role:      input.Role,
		IsActive:  input.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	return &accessDomain.CreateClientOutput{
		ID:          client.ID,
		PlainSecret: plainSecret,
	}, nil
}

// UpdateClient updates a client's name, role, and active status.
// The client secret cannot be changed through updates.
func (c *clientUseCase) UpdateClient(
	ctx context.Context,
	clientID uuid.UUID,
	name string,
	role accessDomain.Role,
	isActive bool,
) error {
	if !role.IsValid() {
		return accessDomain.ErrInvalidRole
	}

	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	client.Name = name
	client.Role = role
	client.IsActive = isActive
	client.UpdatedAt = time.Now().UTC()

	return c.clientRepo.Update(ctx, client)
}

// NewClientUseCase creates a new ClientUseCase with the provided dependencies.
func NewClientUseCase(
	clientRepo ClientRepository,
	secretService accessService.SecretService,
) ClientUseCase {
	return &clientUseCase{
		clientRepo:    clientRepo,
		secretService: secretService,
	}
}
