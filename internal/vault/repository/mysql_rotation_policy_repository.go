package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// MySQLRotationPolicyRepository implements RotationPolicy persistence for MySQL.
// Intervals are stored as integer seconds.
type MySQLRotationPolicyRepository struct {
	db *sql.DB
}

// Upsert inserts a rotation policy or replaces the schedule of an existing one.
func (m *MySQLRotationPolicyRepository) Upsert(
	ctx context.Context,
	policy *vaultDomain.RotationPolicy,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO rotation_policies
				(id, secret_name, interval_seconds, grace_period_seconds, last_rotated_at, next_rotation_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
				interval_seconds = VALUES(interval_seconds),
				grace_period_seconds = VALUES(grace_period_seconds),
				next_rotation_at = VALUES(next_rotation_at),
				updated_at = VALUES(updated_at)`

	_, err := querier.ExecContext(
		ctx,
		query,
		policy.ID,
		policy.SecretName,
		int64(policy.Interval.Seconds()),
		int64(policy.GracePeriod.Seconds()),
		policy.LastRotatedAt,
		policy.NextRotationAt,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert rotation policy")
	}
	return nil
}

// Get retrieves the rotation policy for a secret name.
func (m *MySQLRotationPolicyRepository) Get(
	ctx context.Context,
	secretName string,
) (*vaultDomain.RotationPolicy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret_name, interval_seconds, grace_period_seconds, last_rotated_at, next_rotation_at, created_at, updated_at
			  FROM rotation_policies
			  WHERE secret_name = ?`

	return scanRotationPolicy(querier.QueryRowContext(ctx, query, secretName))
}

// ListDue retrieves policies whose next rotation is at or before now, oldest first.
func (m *MySQLRotationPolicyRepository) ListDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*vaultDomain.RotationPolicy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret_name, interval_seconds, grace_period_seconds, last_rotated_at, next_rotation_at, created_at, updated_at
			  FROM rotation_policies
			  WHERE next_rotation_at <= ?
			  ORDER BY next_rotation_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list due rotation policies")
	}
	defer rows.Close()

	return collectRotationPolicies(rows)
}

// Update writes the schedule columns of an existing rotation policy.
func (m *MySQLRotationPolicyRepository) Update(
	ctx context.Context,
	policy *vaultDomain.RotationPolicy,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE rotation_policies
			  SET interval_seconds = ?, grace_period_seconds = ?, last_rotated_at = ?, next_rotation_at = ?, updated_at = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		int64(policy.Interval.Seconds()),
		int64(policy.GracePeriod.Seconds()),
		policy.LastRotatedAt,
		policy.NextRotationAt,
		policy.UpdatedAt,
		policy.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update rotation policy")
	}
	return nil
}

// Delete removes the rotation policy for a secret name.
func (m *MySQLRotationPolicyRepository) Delete(ctx context.Context, secretName string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM rotation_policies WHERE secret_name = ?`

	_, err := querier.ExecContext(ctx, query, secretName)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete rotation policy")
	}
	return nil
}

// NewMySQLRotationPolicyRepository creates a new MySQL rotation policy repository.
func NewMySQLRotationPolicyRepository(db *sql.DB) *MySQLRotationPolicyRepository {
	return &MySQLRotationPolicyRepository{db: db}
}
