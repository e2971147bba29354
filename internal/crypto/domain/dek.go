// Package domain defines the core domain models for envelope encryption.
// Each secret version is encrypted with its own Data Encryption Key (DEK);
// the DEK itself is wrapped by a master key held by an external key provider.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dek represents a Data Encryption Key used to encrypt a single secret version.
// Only the wrapped form is ever persisted; the plaintext DEK lives in memory
// for the duration of an encrypt/decrypt operation and must be zeroed after use.
type Dek struct {
	// ID is the unique identifier for this DEK (UUIDv7).
	ID uuid.UUID
	// KeyProviderID identifies the key provider (and master key) that wrapped this DEK.
	KeyProviderID string
	// Algorithm is the AEAD algorithm the DEK is used with (AESGCM or ChaCha20).
	Algorithm Algorithm
	// WrappedKey is the DEK encrypted by the key provider's master key.
	WrappedKey []byte
	// CreatedAt is the UTC timestamp when this DEK was created.
	CreatedAt time.Time
}
