// Package usecase implements business logic orchestration for access control.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
)

// ClientRepository defines persistence operations for API clients.
type ClientRepository interface {
	Create(ctx context.Context, client *accessDomain.Client) error
	Update(ctx context.Context, client *accessDomain.Client) error
	Get(ctx context.Context, clientID uuid.UUID) (*accessDomain.Client, error)
}

// TokenRepository defines persistence operations for bearer tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *accessDomain.Token) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*accessDomain.Token, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ClientUseCase defines business operations for managing API clients.
type ClientUseCase interface {
	// CreateClient creates a new client with a generated secret.
	// The plain secret is only returned once.
	CreateClient(
		ctx context.Context,
		input *accessDomain.CreateClientInput,
	) (*accessDomain.CreateClientOutput, error)

	// UpdateClient updates a client's name, role, and active status.
	UpdateClient(
		ctx context.Context,
		clientID uuid.UUID,
		name string,
		role accessDomain.Role,
		isActive bool,
	) error
}

// TokenUseCase defines business operations for issuing and validating tokens.
type TokenUseCase interface {
	// Issue authenticates a client by secret and returns a new bearer token.
	Issue(
		ctx context.Context,
		input *accessDomain.IssueTokenInput,
	) (*accessDomain.IssueTokenOutput, error)

	// Authenticate validates a token hash and returns the associated client.
	Authenticate(ctx context.Context, tokenHash string) (*accessDomain.Client, error)

	// CleanExpired removes tokens that expired before now.
	CleanExpired(ctx context.Context) (int64, error)
}
