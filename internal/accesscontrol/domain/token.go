package domain

import (
	"time"

	"github.com/google/uuid"
)

// Token represents an issued bearer token. Only the SHA-256 hash of the token
// is stored; the plaintext is shown to the caller once at issuance.
type Token struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
