package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSKeyProvider implements KeyProvider using a gocloud.dev secrets keeper.
//
// Supported key URIs: gcpkms://, awskms://, azurekeyvault://, hashivault://,
// base64key:// (local development).
type KMSKeyProvider struct {
	keyURI string
	keeper *secrets.Keeper
}

// NewKMSKeyProvider opens a secrets keeper for the configured key URI.
// Returns an error if the URI is invalid or the connection fails.
func NewKMSKeyProvider(ctx context.Context, keyURI string) (*KMSKeyProvider, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return &KMSKeyProvider{keyURI: keyURI, keeper: keeper}, nil
}

// ID returns the key URI identifying the master key backing this provider.
func (p *KMSKeyProvider) ID() string {
	return p.keyURI
}

// Wrap encrypts a plaintext DEK with the remote master key.
func (p *KMSKeyProvider) Wrap(ctx context.Context, plaintext []byte) ([]byte, error) {
	wrapped, err := p.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrEncryptionFailed, err)
	}
	return wrapped, nil
}

// Unwrap decrypts a wrapped DEK with the remote master key.
func (p *KMSKeyProvider) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	plaintext, err := p.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// Close releases the underlying keeper resources.
func (p *KMSKeyProvider) Close() error {
	return p.keeper.Close()
}
