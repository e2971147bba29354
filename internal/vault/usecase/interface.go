// Package usecase implements business logic orchestration for managed secrets.
// This package coordinates cryptographic services, repositories, and the
// rotation lifecycle: create, audited read, rotate with grace, revoke.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// SecretRepository defines persistence operations for secret versions.
type SecretRepository interface {
	Create(ctx context.Context, secret *vaultDomain.Secret) error
	GetActive(ctx context.Context, name string) (*vaultDomain.Secret, error)
	GetLatest(ctx context.Context, name string) (*vaultDomain.Secret, error)
	GetByNameAndVersion(ctx context.Context, name string, version uint) (*vaultDomain.Secret, error)
	UpdateStatus(ctx context.Context, secret *vaultDomain.Secret) error
	ListExpiredDeprecated(ctx context.Context, cutoff time.Time, limit int) ([]*vaultDomain.Secret, error)
	ListVersions(ctx context.Context, name string) ([]*vaultDomain.Secret, error)
	List(ctx context.Context, offset, limit int) ([]*vaultDomain.Secret, error)
}

// DekRepository defines persistence operations for Data Encryption Keys.
type DekRepository interface {
	Create(ctx context.Context, dek *cryptoDomain.Dek) error
	Get(ctx context.Context, dekID uuid.UUID) (*cryptoDomain.Dek, error)
}

// AccessLogRepository defines persistence operations for secret access logs.
type AccessLogRepository interface {
	Create(ctx context.Context, log *vaultDomain.SecretAccessLog) error
	ListBySecretName(
		ctx context.Context,
		secretName string,
		offset, limit int,
	) ([]*vaultDomain.SecretAccessLog, error)
}

// RotationPolicyRepository defines persistence operations for rotation policies.
type RotationPolicyRepository interface {
	Upsert(ctx context.Context, policy *vaultDomain.RotationPolicy) error
	Get(ctx context.Context, secretName string) (*vaultDomain.RotationPolicy, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*vaultDomain.RotationPolicy, error)
	Update(ctx context.Context, policy *vaultDomain.RotationPolicy) error
	Delete(ctx context.Context, secretName string) error
}

// LeaseRepository defines database lease operations for scheduler coordination.
type LeaseRepository interface {
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holder string) error
}

// ChangePublisher enqueues change events for asynchronous fan-out.
// Publication is best-effort: failures never roll back the originating mutation.
type ChangePublisher interface {
	Publish(
		ctx context.Context,
		kind propagatorDomain.EntityKind,
		key string,
		version uint64,
		payload []byte,
	) error
}

// VaultUseCase defines business operations for managed secrets.
type VaultUseCase interface {
	// Create stores a new version of the named secret with the caller-supplied
	// value. The previous active version, if any, enters its grace window.
	Create(ctx context.Context, name string, value []byte, author string) (*vaultDomain.Secret, error)

	// Read retrieves and decrypts the active version. The access is logged
	// before any plaintext is returned; if the log write fails, the read fails.
	Read(ctx context.Context, name, clientName string) (*vaultDomain.Secret, error)

	// ReadVersion retrieves and decrypts a specific version. Deprecated
	// versions remain readable inside their grace window; revoked versions
	// return ErrSecretRevoked.
	ReadVersion(ctx context.Context, name string, version uint, clientName string) (*vaultDomain.Secret, error)

	// Rotate creates a new version with generated secret material and
	// deprecates the previous active version for its grace window.
	Rotate(ctx context.Context, name, author string) (*vaultDomain.Secret, error)

	// EmergencyRotate creates a new version and revokes the previous active
	// version immediately, skipping the grace window.
	EmergencyRotate(ctx context.Context, name, author string) (*vaultDomain.Secret, error)

	// Revoke marks a specific version as unreadable.
	Revoke(ctx context.Context, name string, version uint, author string) error

	// SweepExpired revokes deprecated versions whose grace window has closed.
	// Returns the number of versions revoked.
	SweepExpired(ctx context.Context, limit int) (int, error)

	// List retrieves active secret versions without values, with pagination.
	List(ctx context.Context, offset, limit int) ([]*vaultDomain.Secret, error)

	// ListVersions retrieves all versions of a secret without values.
	ListVersions(ctx context.Context, name string) ([]*vaultDomain.Secret, error)

	// ListAccessLogs retrieves the access history of a secret, newest first.
	ListAccessLogs(
		ctx context.Context,
		name string,
		offset, limit int,
	) ([]*vaultDomain.SecretAccessLog, error)

	// SetRotationPolicy creates or replaces the rotation schedule for a secret.
	SetRotationPolicy(
		ctx context.Context,
		name string,
		interval, gracePeriod time.Duration,
	) (*vaultDomain.RotationPolicy, error)

	// GetRotationPolicy retrieves the rotation schedule for a secret.
	GetRotationPolicy(ctx context.Context, name string) (*vaultDomain.RotationPolicy, error)

	// RotateDue rotates every secret whose rotation policy is due.
	// Returns the number of secrets rotated.
	RotateDue(ctx context.Context, now time.Time, limit int) (int, error)
}
