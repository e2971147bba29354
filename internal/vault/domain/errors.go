package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Vault-specific error definitions.
var (
	// ErrSecretNotFound indicates the secret was not found under the specified name.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrSecretRevoked indicates the requested secret version has been revoked.
	// Revoked versions behave like missing ones: readers cannot tell whether a
	// version never existed or was revoked.
	ErrSecretRevoked = errors.Wrap(errors.ErrNotFound, "secret version is revoked")

	// ErrAuditFailed indicates the access log could not be written. Reads fail
	// closed: no plaintext is returned without a persisted audit record.
	ErrAuditFailed = errors.Wrap(errors.ErrUnavailable, "failed to record secret access")

	// ErrRotationPolicyNotFound indicates no rotation policy exists for the secret name.
	ErrRotationPolicyNotFound = errors.Wrap(errors.ErrNotFound, "rotation policy not found")
)
