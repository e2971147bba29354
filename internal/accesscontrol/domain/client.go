package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client represents an API client with an associated role.
// Clients authenticate with a secret to obtain bearer tokens.
type Client struct {
	ID        uuid.UUID // Unique identifier (UUIDv7)
	Name      string    // Human-readable client name
	Secret    string    //nolint:gosec // Argon2id hash of the client secret (not plaintext)
	Role      Role      // Access level granted to this client
	IsActive  bool      // Whether the client can authenticate
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateClientInput contains the parameters for creating a new API client.
// The client secret is generated server-side and cannot be chosen by the caller.
type CreateClientInput struct {
	Name     string
	Role     Role
	IsActive bool
}

// CreateClientOutput contains the result of creating a new client.
// SECURITY: The PlainSecret is only returned once and must be securely
// transmitted to the client. It is never retrievable again.
type CreateClientOutput struct {
	ID          uuid.UUID
	PlainSecret string
}

// IssueTokenInput contains the credentials presented when requesting a token.
type IssueTokenInput struct {
	ClientID     uuid.UUID
	ClientSecret string
}

// IssueTokenOutput contains the result of issuing a token.
// SECURITY: The PlainToken is only returned once; the server stores its hash.
type IssueTokenOutput struct {
	PlainToken string
	ExpiresAt  time.Time
}
