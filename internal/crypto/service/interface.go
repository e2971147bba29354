// Package service provides cryptographic services for envelope encryption.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) and DEK wrapping
// through a pluggable external key provider.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyProvider wraps and unwraps Data Encryption Keys with an externally held
// master key. Implementations: KMS-backed (gocloud.dev secrets keeper) for
// production, static environment-loaded master keys for development and tests.
type KeyProvider interface {
	// ID identifies the provider instance; recorded on every DEK it wraps so
	// the matching provider can be selected for unwrapping later.
	ID() string

	// Wrap encrypts a plaintext DEK with the provider's master key.
	Wrap(ctx context.Context, plaintext []byte) ([]byte, error)

	// Unwrap decrypts a wrapped DEK with the provider's master key.
	Unwrap(ctx context.Context, wrapped []byte) ([]byte, error)
}

// DekManager manages the lifecycle of Data Encryption Keys.
type DekManager interface {
	// CreateDek generates a fresh 32-byte DEK, wraps it with the key provider,
	// and returns both the persistable Dek and the plaintext key. The caller
	// must zero the plaintext key after use.
	CreateDek(ctx context.Context, alg cryptoDomain.Algorithm) (cryptoDomain.Dek, []byte, error)

	// UnwrapDek recovers the plaintext DEK for a persisted Dek. The caller
	// must zero the returned key after use.
	UnwrapDek(ctx context.Context, dek *cryptoDomain.Dek) ([]byte, error)
}
