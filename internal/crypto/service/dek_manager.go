package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
)

// DekManagerService implements the DekManager interface for envelope encryption.
//
// Each secret version gets its own 32-byte Data Encryption Key. The DEK is
// wrapped by the configured key provider before persistence, so the plaintext
// key only ever exists in memory during an encrypt/decrypt operation.
type DekManagerService struct {
	keyProvider KeyProvider
}

// NewDekManager creates a new DekManagerService with the provided key provider.
func NewDekManager(keyProvider KeyProvider) *DekManagerService {
	return &DekManagerService{keyProvider: keyProvider}
}

// CreateDek generates a fresh random DEK and wraps it with the key provider.
// Returns the persistable Dek (wrapped form) along with the plaintext key;
// callers must zero the plaintext key once the cipher is created.
func (dm *DekManagerService) CreateDek(
	ctx context.Context,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.Dek, []byte, error) {
	dekKey := make([]byte, 32)
	if _, err := rand.Read(dekKey); err != nil {
		return cryptoDomain.Dek{}, nil, fmt.Errorf("failed to generate DEK: %w", err)
	}

	wrapped, err := dm.keyProvider.Wrap(ctx, dekKey)
	if err != nil {
		cryptoDomain.Zero(dekKey)
		return cryptoDomain.Dek{}, nil, err
	}

	dek := cryptoDomain.Dek{
		ID:            uuid.Must(uuid.NewV7()),
		KeyProviderID: dm.keyProvider.ID(),
		Algorithm:     alg,
		WrappedKey:    wrapped,
		CreatedAt:     time.Now().UTC(),
	}

	return dek, dekKey, nil
}

// UnwrapDek recovers the plaintext DEK for a persisted Dek.
// Fails if the DEK was wrapped by a different provider than the one configured.
func (dm *DekManagerService) UnwrapDek(
	ctx context.Context,
	dek *cryptoDomain.Dek,
) ([]byte, error) {
	if dek.KeyProviderID != dm.keyProvider.ID() {
		return nil, cryptoDomain.ErrKeyProviderNotFound
	}

	return dm.keyProvider.Unwrap(ctx, dek.WrappedKey)
}
