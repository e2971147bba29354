package service

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
)

// staticProviderPrefix namespaces static provider IDs so a DEK wrapped by the
// static chain is never confused with a KMS key URI.
const staticProviderPrefix = "static://"

// StaticKeyProvider implements KeyProvider using master keys loaded from the
// environment (the MasterKeyChain). Intended for development and tests; in
// production the KMS-backed provider should be used instead.
//
// Wrapped blobs are self-contained: the nonce is prepended to the AEAD
// ciphertext so only a single column is needed in storage.
type StaticKeyProvider struct {
	chain       *cryptoDomain.MasterKeyChain
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewStaticKeyProvider creates a key provider backed by the given master key chain.
func NewStaticKeyProvider(
	chain *cryptoDomain.MasterKeyChain,
	aeadManager AEADManager,
	algorithm cryptoDomain.Algorithm,
) *StaticKeyProvider {
	return &StaticKeyProvider{
		chain:       chain,
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// ID returns the provider identifier derived from the active master key.
func (p *StaticKeyProvider) ID() string {
	return staticProviderPrefix + p.chain.ActiveMasterKeyID()
}

// Wrap encrypts a plaintext DEK with the active master key.
func (p *StaticKeyProvider) Wrap(ctx context.Context, plaintext []byte) ([]byte, error) {
	masterKey, ok := p.chain.Get(p.chain.ActiveMasterKeyID())
	if !ok {
		return nil, cryptoDomain.ErrKeyProviderNotFound
	}

	aead, err := p.aeadManager.CreateCipher(masterKey.Key, p.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, []byte(masterKey.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrEncryptionFailed, err)
	}

	// Self-contained blob: nonce followed by ciphertext.
	return append(nonce, ciphertext...), nil
}

// Unwrap decrypts a wrapped DEK with the active master key.
func (p *StaticKeyProvider) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	masterKey, ok := p.chain.Get(p.chain.ActiveMasterKeyID())
	if !ok {
		return nil, cryptoDomain.ErrKeyProviderNotFound
	}

	aead, err := p.aeadManager.CreateCipher(masterKey.Key, p.algorithm)
	if err != nil {
		return nil, err
	}

	// AEAD nonces are 12 bytes for both supported algorithms.
	if len(wrapped) < 12 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	nonce, ciphertext := wrapped[:12], wrapped[12:]

	plaintext, err := aead.Decrypt(ciphertext, nonce, []byte(masterKey.ID))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}
