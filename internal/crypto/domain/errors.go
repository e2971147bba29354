package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so the
// HTTP layer can map them to status codes. Encryption and decryption failures
// are fail-closed: no partial plaintext is ever returned alongside an error.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrEncryptionFailed indicates the key provider or cipher failed while
	// encrypting. The operation is aborted and nothing is persisted.
	ErrEncryptionFailed = errors.Wrap(errors.ErrUnavailable, "encryption failed")

	// ErrDecryptionFailed indicates ciphertext could not be authenticated and
	// decrypted. Deliberately generic to avoid oracle behavior.
	ErrDecryptionFailed = errors.Wrap(errors.ErrUnavailable, "decryption failed")

	// ErrKeyProviderNotFound indicates no key provider is registered under the
	// ID recorded on a persisted DEK.
	ErrKeyProviderNotFound = errors.Wrap(errors.ErrUnavailable, "key provider not found")

	// ErrDekNotFound indicates a DEK with the specified ID was not found.
	ErrDekNotFound = errors.Wrap(errors.ErrNotFound, "dek not found")

	// ErrMasterKeysNotSet indicates the MASTER_KEYS environment variable is not configured.
	ErrMasterKeysNotSet = errors.New("MASTER_KEYS environment variable is not set")

	// ErrActiveMasterKeyIDNotSet indicates the ACTIVE_MASTER_KEY_ID environment variable is not configured.
	ErrActiveMasterKeyIDNotSet = errors.New("ACTIVE_MASTER_KEY_ID environment variable is not set")

	// ErrInvalidMasterKeysFormat indicates a MASTER_KEYS entry is not in "id:base64key" format.
	ErrInvalidMasterKeysFormat = errors.New("invalid MASTER_KEYS format")

	// ErrInvalidMasterKeyBase64 indicates a master key is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.New("invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID does not match any loaded key.
	ErrActiveMasterKeyNotFound = errors.New("active master key not found")
)
