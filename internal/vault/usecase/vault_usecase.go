package usecase

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/controlplane/internal/config"
	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	cryptoService "github.com/allisson/controlplane/internal/crypto/service"
	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// defaultGracePeriod is how long a deprecated version stays readable when the
// secret has no rotation policy of its own.
const defaultGracePeriod = 24 * time.Hour

// vaultUseCase implements the VaultUseCase interface for managing secrets.
type vaultUseCase struct {
	config       *config.Config
	txManager    database.TxManager
	secretRepo   SecretRepository
	dekRepo      DekRepository
	accessRepo   AccessLogRepository
	policyRepo   RotationPolicyRepository
	aeadManager  cryptoService.AEADManager
	dekManager   cryptoService.DekManager
	publisher    ChangePublisher
	dekAlgorithm cryptoDomain.Algorithm
	logger       *slog.Logger
}

// secretChangePayload is the JSON document attached to secret change events.
// It carries metadata only, never secret material.
type secretChangePayload struct {
	Name    string                   `json:"name"`
	Version uint                     `json:"version"`
	Status  vaultDomain.SecretStatus `json:"status"`
}

// Create stores a new version of the named secret with the caller-supplied value.
func (v *vaultUseCase) Create(
	ctx context.Context,
	name string,
	value []byte,
	author string,
) (*vaultDomain.Secret, error) {
	return v.writeVersion(ctx, name, value, author, vaultDomain.ActionCreate, false)
}

// Rotate creates a new version with generated 32-byte secret material.
func (v *vaultUseCase) Rotate(ctx context.Context, name, author string) (*vaultDomain.Secret, error) {
	if _, err := v.secretRepo.GetLatest(ctx, name); err != nil {
		return nil, err
	}

	value, err := generateSecretMaterial()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(value)

	return v.writeVersion(ctx, name, value, author, vaultDomain.ActionRotate, false)
}

// EmergencyRotate creates a new version and revokes the previous active
// version immediately, skipping the grace window.
func (v *vaultUseCase) EmergencyRotate(
	ctx context.Context,
	name, author string,
) (*vaultDomain.Secret, error) {
	if _, err := v.secretRepo.GetLatest(ctx, name); err != nil {
		return nil, err
	}

	value, err := generateSecretMaterial()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(value)

	return v.writeVersion(ctx, name, value, author, vaultDomain.ActionEmergencyRotate, true)
}

// writeVersion encrypts value into a new secret version and transitions the
// previous active version out of service, all within one transaction.
func (v *vaultUseCase) writeVersion(
	ctx context.Context,
	name string,
	value []byte,
	author string,
	action vaultDomain.AccessAction,
	revokeImmediately bool,
) (*vaultDomain.Secret, error) {
	now := time.Now().UTC()

	// The grace window comes from the rotation policy; without one a default
	// window applies so the old version does not become unreadable the moment
	// it is deprecated.
	grace := defaultGracePeriod
	policy, err := v.policyRepo.Get(ctx, name)
	if err != nil && !errors.Is(err, vaultDomain.ErrRotationPolicyNotFound) {
		return nil, err
	}
	if policy != nil {
		grace = policy.GracePeriod
	}

	var version uint = 1
	latest, err := v.secretRepo.GetLatest(ctx, name)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if latest != nil {
		version = latest.Version + 1
	}

	var newSecret *vaultDomain.Secret
	err = v.txManager.WithTx(ctx, func(txCtx context.Context) error {
		// Capture the outgoing active version before inserting the new one;
		// GetActive resolves the highest active version, which after the
		// insert would be the new version itself.
		previous, err := v.secretRepo.GetActive(txCtx, name)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		dek, dekKey, err := v.dekManager.CreateDek(txCtx, v.dekAlgorithm)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(dekKey)

		if err := v.dekRepo.Create(txCtx, &dek); err != nil {
			return err
		}

		cipher, err := v.aeadManager.CreateCipher(dekKey, v.dekAlgorithm)
		if err != nil {
			return err
		}

		ciphertext, nonce, err := cipher.Encrypt(value, nil)
		if err != nil {
			return err
		}

		newSecret = &vaultDomain.Secret{
			ID:         uuid.Must(uuid.NewV7()),
			Name:       name,
			Version:    version,
			Status:     vaultDomain.StatusActive,
			DekID:      dek.ID,
			Ciphertext: ciphertext,
			Nonce:      nonce,
			CreatedBy:  author,
			CreatedAt:  now,
		}
		if err := v.secretRepo.Create(txCtx, newSecret); err != nil {
			return err
		}

		// Transition the previous active version out of service.
		if previous != nil {
			if revokeImmediately {
				previous.Status = vaultDomain.StatusRevoked
				previous.RevokedAt = &now
			} else {
				expires := now.Add(grace)
				previous.Status = vaultDomain.StatusDeprecated
				previous.DeprecatedAt = &now
				previous.GraceExpiresAt = &expires
			}
			if err := v.secretRepo.UpdateStatus(txCtx, previous); err != nil {
				return err
			}
		}

		return v.accessRepo.Create(txCtx, &vaultDomain.SecretAccessLog{
			ID:         uuid.Must(uuid.NewV7()),
			SecretName: name,
			Version:    version,
			ClientName: author,
			Action:     action,
			Success:    true,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	v.publish(ctx, newSecret)
	return newSecret, nil
}

// Read retrieves and decrypts the active version of a secret.
func (v *vaultUseCase) Read(ctx context.Context, name, clientName string) (*vaultDomain.Secret, error) {
	ctx, cancel := context.WithTimeout(ctx, v.config.VaultReadTimeout)
	defer cancel()

	secret, err := v.secretRepo.GetActive(ctx, name)
	if err != nil {
		return nil, err
	}

	return v.auditedDecrypt(ctx, secret, clientName)
}

// ReadVersion retrieves and decrypts a specific version of a secret.
func (v *vaultUseCase) ReadVersion(
	ctx context.Context,
	name string,
	version uint,
	clientName string,
) (*vaultDomain.Secret, error) {
	ctx, cancel := context.WithTimeout(ctx, v.config.VaultReadTimeout)
	defer cancel()

	secret, err := v.secretRepo.GetByNameAndVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}

	if !secret.Readable(time.Now().UTC()) {
		// Record the refused attempt; a failure to audit here is logged but does
		// not mask the revocation error.
		if auditErr := v.audit(ctx, secret, clientName, false); auditErr != nil {
			v.logger.Warn("failed to record refused secret access",
				slog.String("secret", name),
				slog.Any("error", auditErr),
			)
		}
		return nil, vaultDomain.ErrSecretRevoked
	}

	return v.auditedDecrypt(ctx, secret, clientName)
}

// auditedDecrypt writes the access log and then decrypts. The order is the
// contract: no plaintext leaves the vault without a persisted audit record.
func (v *vaultUseCase) auditedDecrypt(
	ctx context.Context,
	secret *vaultDomain.Secret,
	clientName string,
) (*vaultDomain.Secret, error) {
	if err := v.audit(ctx, secret, clientName, true); err != nil {
		return nil, vaultDomain.ErrAuditFailed
	}

	dek, err := v.dekRepo.Get(ctx, secret.DekID)
	if err != nil {
		return nil, err
	}

	dekKey, err := v.dekManager.UnwrapDek(ctx, dek)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dekKey)

	cipher, err := v.aeadManager.CreateCipher(dekKey, dek.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := cipher.Decrypt(secret.Ciphertext, secret.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	secret.Plaintext = plaintext
	return secret, nil
}

// audit writes a single access log row.
func (v *vaultUseCase) audit(
	ctx context.Context,
	secret *vaultDomain.Secret,
	clientName string,
	success bool,
) error {
	return v.accessRepo.Create(ctx, &vaultDomain.SecretAccessLog{
		ID:         uuid.Must(uuid.NewV7()),
		SecretName: secret.Name,
		Version:    secret.Version,
		ClientName: clientName,
		Action:     vaultDomain.ActionRead,
		Success:    success,
		CreatedAt:  time.Now().UTC(),
	})
}

// Revoke marks a specific version as unreadable.
func (v *vaultUseCase) Revoke(ctx context.Context, name string, version uint, author string) error {
	secret, err := v.secretRepo.GetByNameAndVersion(ctx, name, version)
	if err != nil {
		return err
	}
	if secret.Status == vaultDomain.StatusRevoked {
		return nil
	}

	now := time.Now().UTC()
	secret.Status = vaultDomain.StatusRevoked
	secret.RevokedAt = &now

	err = v.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := v.secretRepo.UpdateStatus(txCtx, secret); err != nil {
			return err
		}
		return v.accessRepo.Create(txCtx, &vaultDomain.SecretAccessLog{
			ID:         uuid.Must(uuid.NewV7()),
			SecretName: name,
			Version:    version,
			ClientName: author,
			Action:     vaultDomain.ActionRevoke,
			Success:    true,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return err
	}

	v.publish(ctx, secret)
	return nil
}

// SweepExpired revokes deprecated versions whose grace window closed.
func (v *vaultUseCase) SweepExpired(ctx context.Context, limit int) (int, error) {
	now := time.Now().UTC()

	expired, err := v.secretRepo.ListExpiredDeprecated(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, secret := range expired {
		secret.Status = vaultDomain.StatusRevoked
		secret.RevokedAt = &now
		if err := v.secretRepo.UpdateStatus(ctx, secret); err != nil {
			return revoked, err
		}
		revoked++
		v.publish(ctx, secret)
	}

	return revoked, nil
}

// List retrieves active secret versions without values.
func (v *vaultUseCase) List(ctx context.Context, offset, limit int) ([]*vaultDomain.Secret, error) {
	return v.secretRepo.List(ctx, offset, limit)
}

// ListVersions retrieves all versions of a secret without values.
func (v *vaultUseCase) ListVersions(ctx context.Context, name string) ([]*vaultDomain.Secret, error) {
	secrets, err := v.secretRepo.ListVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		return nil, vaultDomain.ErrSecretNotFound
	}
	return secrets, nil
}

// ListAccessLogs retrieves the access history of a secret, newest first.
func (v *vaultUseCase) ListAccessLogs(
	ctx context.Context,
	name string,
	offset, limit int,
) ([]*vaultDomain.SecretAccessLog, error) {
	return v.accessRepo.ListBySecretName(ctx, name, offset, limit)
}

// SetRotationPolicy creates or replaces the rotation schedule for a secret.
func (v *vaultUseCase) SetRotationPolicy(
	ctx context.Context,
	name string,
	interval, gracePeriod time.Duration,
) (*vaultDomain.RotationPolicy, error) {
	if _, err := v.secretRepo.GetLatest(ctx, name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	policy := &vaultDomain.RotationPolicy{
		ID:             uuid.Must(uuid.NewV7()),
		SecretName:     name,
		Interval:       interval,
		GracePeriod:    gracePeriod,
		NextRotationAt: now.Add(interval),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := v.policyRepo.Upsert(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// GetRotationPolicy retrieves the rotation schedule for a secret.
func (v *vaultUseCase) GetRotationPolicy(
	ctx context.Context,
	name string,
) (*vaultDomain.RotationPolicy, error) {
	return v.policyRepo.Get(ctx, name)
}

// RotateDue rotates every secret whose rotation policy is due.
func (v *vaultUseCase) RotateDue(ctx context.Context, now time.Time, limit int) (int, error) {
	policies, err := v.policyRepo.ListDue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	rotated := 0
	for _, policy := range policies {
		if _, err := v.Rotate(ctx, policy.SecretName, "rotation-scheduler"); err != nil {
			v.logger.Error("scheduled rotation failed",
				slog.String("secret", policy.SecretName),
				slog.Any("error", err),
			)
			continue
		}

		policy.Advance(now)
		if err := v.policyRepo.Update(ctx, policy); err != nil {
			return rotated, err
		}
		rotated++
	}

	return rotated, nil
}

// publish enqueues a change event after a lifecycle transition committed.
// Events carry metadata only; subscribers re-read through the API.
func (v *vaultUseCase) publish(ctx context.Context, secret *vaultDomain.Secret) {
	payload, err := json.Marshal(secretChangePayload{
		Name:    secret.Name,
		Version: secret.Version,
		Status:  secret.Status,
	})
	if err != nil {
		v.logger.Warn("failed to marshal secret change payload", slog.Any("error", err))
		return
	}

	if err := v.publisher.Publish(
		ctx,
		propagatorDomain.KindSecret,
		secret.Name,
		uint64(secret.Version),
		payload,
	); err != nil {
		v.logger.Warn("failed to enqueue secret change event",
			slog.String("secret", secret.Name),
			slog.Uint64("version", uint64(secret.Version)),
			slog.Any("error", err),
		)
	}
}

// generateSecretMaterial returns 32 fresh random bytes for a rotated secret.
func generateSecretMaterial() ([]byte, error) {
	value := make([]byte, 32)
	if _, err := rand.Read(value); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate secret material")
	}
	return value, nil
}

// NewVaultUseCase creates a new vault use case instance with the provided dependencies.
func NewVaultUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	secretRepo SecretRepository,
	dekRepo DekRepository,
	accessRepo AccessLogRepository,
	policyRepo RotationPolicyRepository,
	aeadManager cryptoService.AEADManager,
	dekManager cryptoService.DekManager,
	publisher ChangePublisher,
	dekAlgorithm cryptoDomain.Algorithm,
	logger *slog.Logger,
) VaultUseCase {
	return &vaultUseCase{
		config:       cfg,
		txManager:    txManager,
		secretRepo:   secretRepo,
		dekRepo:      dekRepo,
		accessRepo:   accessRepo,
		policyRepo:   policyRepo,
		aeadManager:  aeadManager,
		dekManager:   dekManager,
		publisher:    publisher,
		dekAlgorithm: dekAlgorithm,
		logger:       logger,
	}
}
