package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
	"github.com/allisson/controlplane/internal/config"
)

// tokenUseCase implements TokenUseCase for issuing and validating bearer tokens.
type tokenUseCase struct {
	config        *config.Config
	clientRepo    ClientRepository
	tokenRepo     TokenRepository
	secretService accessService.SecretService
	tokenService  accessService.TokenService
}

// Issue authenticates a client by secret and generates a new bearer token.
//
// Security notes:
//   - Returns ErrInvalidCredentials for both unknown clients and wrong secrets
//     to prevent enumeration attacks
//   - The plain token is only returned once and should be transmitted securely
//   - Token expiration is set from Config.AuthTokenExpiration
func (t *tokenUseCase) Issue(
	ctx context.Context,
	input *accessDomain.IssueTokenInput,
) (*accessDomain.IssueTokenOutput, error) {
	client, err := t.clientRepo.Get(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, accessDomain.ErrClientNotFound) {
			return nil, accessDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !client.IsActive {
		return nil, accessDomain.ErrClientInactive
	}

	if !t.secretService.CompareSecret(input.ClientSecret, client.Secret) {
		return nil, accessDomain.ErrInvalidCredentials
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &accessDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: tokenHash,
		ClientID:  client.ID,
		ExpiresAt: now.Add(t.config.AuthTokenExpiration),
		RevokedAt: nil,
		CreatedAt: now,
	}

	if err := t.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &accessDomain.IssueTokenOutput{
		PlainToken: plainToken,
		ExpiresAt:  token.ExpiresAt,
	}, nil
}

// Authenticate validates a token hash and returns the associated client.
//
// Security notes:
//   - Returns ErrInvalidCredentials for a missing, expired, or revoked token to
//     prevent enumeration and information leakage
//   - Returns ErrClientInactive if the client exists but is not active
//   - All time comparisons use UTC
func (t *tokenUseCase) Authenticate(
	ctx context.Context,
	tokenHash string,
) (*accessDomain.Client, error) {
	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, accessDomain.ErrTokenNotFound) {
			return nil, accessDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if token.ExpiresAt.Before(time.Now().UTC()) {
		return nil, accessDomain.ErrInvalidCredentials
	}

	if token.RevokedAt != nil {
		return nil, accessDomain.ErrInvalidCredentials
	}

	client, err := t.clientRepo.Get(ctx, token.ClientID)
	if err != nil {
		if errors.Is(err, accessDomain.ErrClientNotFound) {
			return nil, accessDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !client.IsActive {
		return nil, accessDomain.ErrClientInactive
	}

	return client, nil
}

// CleanExpired removes tokens that expired before now.
func (t *tokenUseCase) CleanExpired(ctx context.Context) (int64, error) {
	return t.tokenRepo.DeleteExpired(ctx, time.Now().UTC())
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	cfg *config.Config,
	clientRepo ClientRepository,
	tokenRepo TokenRepository,
	secretService accessService.SecretService,
	tokenService accessService.TokenService,
) TokenUseCase {
	return &tokenUseCase{
		config:        cfg,
		clientRepo:    clientRepo,
		tokenRepo:     tokenRepo,
		secretService: secretService,
		tokenService:  tokenService,
	}
}
