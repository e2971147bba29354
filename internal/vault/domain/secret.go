package domain

import (
	"time"

	"github.com/google/uuid"
)

// Secret represents a single encrypted version of a managed secret.
// Rows are immutable except for the status transition columns; a rotation
// inserts a new row rather than mutating the current one.
type Secret struct {
	// ID is the unique identifier for this specific secret version.
	ID uuid.UUID
	// Name is the logical key used to access the secret (e.g., "app/db-password").
	Name string
	// Version is the monotonically increasing version number for this name.
	Version uint
	// Status is the lifecycle state of this version.
	Status SecretStatus
	// DekID references the Data Encryption Key used to encrypt this version.
	DekID uuid.UUID
	// Ciphertext contains the encrypted secret data.
	Ciphertext []byte
	// Nonce is the random value used during AEAD encryption.
	Nonce []byte
	// Plaintext holds the decrypted secret value in memory only; must be zeroed after use.
	Plaintext []byte `json:"-"`
	// CreatedBy records which client created this version.
	CreatedBy string
	// CreatedAt is the UTC timestamp when this version was created.
	CreatedAt time.Time
	// DeprecatedAt marks when this version left active service (nil while active).
	DeprecatedAt *time.Time
	// GraceExpiresAt is when the deprecated grace window closes and the sweeper
	// revokes this version (nil while active).
	GraceExpiresAt *time.Time
	// RevokedAt marks when this version became unreadable (nil until revoked).
	RevokedAt *time.Time
}

// Readable reports whether this version may still be served at the given
// time. Active versions are always readable; deprecated versions only while
// the grace window is open. A deprecated version past its grace expiry is
// refused even if the sweeper has not flipped it to revoked yet.
func (s *Secret) Readable(now time.Time) bool {
	switch s.Status {
	case StatusActive:
		return true
	case StatusDeprecated:
		return s.GraceExpiresAt == nil || now.Before(*s.GraceExpiresAt)
	default:
		return false
	}
}
