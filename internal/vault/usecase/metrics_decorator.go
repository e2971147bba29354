package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/allisson/controlplane/internal/metrics"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// vaultUseCaseWithMetrics decorates VaultUseCase with metrics instrumentation.
type vaultUseCaseWithMetrics struct {
	next    VaultUseCase
	metrics metrics.BusinessMetrics
}

// NewVaultUseCaseWithMetrics wraps a VaultUseCase with metrics recording.
func NewVaultUseCaseWithMetrics(useCase VaultUseCase, m metrics.BusinessMetrics) VaultUseCase {
	return &vaultUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// readStatus maps read outcomes to a metric status. Audit failures are tracked
// separately because they indicate a fail-closed refusal rather than an error
// in the secret itself.
func readStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, vaultDomain.ErrAuditFailed):
		return "audit_failed"
	case errors.Is(err, vaultDomain.ErrSecretRevoked):
		return "revoked"
	default:
		return "error"
	}
}

// status maps generic outcomes to a metric status.
func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (v *vaultUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	v.metrics.RecordOperation(ctx, "vault", operation, status)
	v.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

func (v *vaultUseCaseWithMetrics) Create(
	ctx context.Context,
	name string,
	value []byte,
	author string,
) (*vaultDomain.Secret, error) {
	start := time.Now()
	secret, err := v.next.Create(ctx, name, value, author)
	v.record(ctx, "secret_create", status(err), start)
	return secret, err
}

func (v *vaultUseCaseWithMetrics) Read(
	ctx context.Context,
	name, clientName string,
) (*vaultDomain.Secret, error) {
	start := time.Now()
	secret, err := v.next.Read(ctx, name, clientName)
	v.record(ctx, "secret_read", readStatus(err), start)
	return secret, err
}

func (v *vaultUseCaseWithMetrics) ReadVersion(
	ctx context.Context,
	name string,
	version uint,
	clientName string,
) (*vaultDomain.Secret, error) {
	start := time.Now()
	secret, err := v.next.ReadVersion(ctx, name, version, clientName)
	v.record(ctx, "secret_read_version", readStatus(err), start)
	return secret, err
}

func (v *vaultUseCaseWithMetrics) Rotate(
	ctx context.Context,
	name, author string,
) (*vaultDomain.Secret, error) {
	start := time.Now()
	secret, err := v.next.Rotate(ctx, name, author)
	v.record(ctx, "secret_rotate", status(err), start)
	return secret, err
}

func (v *vaultUseCaseWithMetrics) EmergencyRotate(
	ctx context.Context,
	name, author string,
) (*vaultDomain.Secret, error) {
	start := time.Now()
	secret, err := v.next.EmergencyRotate(ctx, name, author)
	v.record(ctx, "secret_emergency_rotate", status(err), start)
	return secret, err
}

func (v *vaultUseCaseWithMetrics) Revoke(
	ctx context.Context,
	name string,
	version uint,
	author string,
) error {
	start := time.Now()
	err := v.next.Revoke(ctx, name, version, author)
	v.record(ctx, "secret_revoke", status(err), start)
	return err
}

func (v *vaultUseCaseWithMetrics) SweepExpired(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	revoked, err := v.next.SweepExpired(ctx, limit)
	v.record(ctx, "secret_sweep", status(err), start)
	return revoked, err
}

func (v *vaultUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
) ([]*vaultDomain.Secret, error) {
	start := time.Now()
	secrets, err := v.next.List(ctx, offset, limit)
	v.record(ctx, "secret_list", status(err), start)
	return secrets, err
}

func (v *vaultUseCaseWithMetrics) ListVersions(
	ctx context.Context,
	name string,
) ([]*vaultDomain.Secret, error) {
	start := time.Now()
	secrets, err := v.next.ListVersions(ctx, name)
	v.record(ctx, "secret_list_versions", status(err), start)
	return secrets, err
}

func (v *vaultUseCaseWithMetrics) ListAccessLogs(
	ctx context.Context,
	name string,
	offset, limit int,
) ([]*vaultDomain.SecretAccessLog, error) {
	start := time.Now()
	logs, err := v.next.ListAccessLogs(ctx, name, offset, limit)
	v.record(ctx, "secret_access_logs", status(err), start)
	return logs, err
}

func (v *vaultUseCaseWithMetrics) SetRotationPolicy(
	ctx context.Context,
	name string,
	interval, gracePeriod time.Duration,
) (*vaultDomain.RotationPolicy, error) {
	start := time.Now()
	policy, err := v.next.SetRotationPolicy(ctx, name, interval, gracePeriod)
	v.record(ctx, "rotation_policy_set", status(err), start)
	return policy, err
}

func (v *vaultUseCaseWithMetrics) GetRotationPolicy(
	ctx context.Context,
	name string,
) (*vaultDomain.RotationPolicy, error) {
	start := time.Now()
	policy, err := v.next.GetRotationPolicy(ctx, name)
	v.record(ctx, "rotation_policy_get", status(err), start)
	return policy, err
}

func (v *vaultUseCaseWithMetrics) RotateDue(
	ctx context.Context,
	now time.Time,
	limit int,
) (int, error) {
	start := time.Now()
	rotated, err := v.next.RotateDue(ctx, now, limit)
	v.record(ctx, "rotation_due", status(err), start)
	return rotated, err
}
