package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// PostgreSQLRotationPolicyRepository implements RotationPolicy persistence for PostgreSQL.
// Intervals are stored as integer seconds.
type PostgreSQLRotationPolicyRepository struct {
	db *sql.DB
}

// Upsert inserts a rotation policy or replaces the schedule of an existing one.
func (p *PostgreSQLRotationPolicyRepository) Upsert(
	ctx context.Context,
	policy *vaultDomain.RotationPolicy,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO rotation_policies
				(id, secret_name, interval_seconds, grace_period_seconds, last_rotated_at, next_rotation_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (secret_name) DO UPDATE SET
				interval_seconds = EXCLUDED.interval_seconds,
				grace_period_seconds = EXCLUDED.grace_period_seconds,
				next_rotation_at = EXCLUDED.next_rotation_at,
				updated_at = EXCLUDED.updated_at`

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
func (p *PostgreSQLRotationPolicyRepository) Get(
	ctx context.Context,
	secretName string,
) (*vaultDomain.RotationPolicy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_name, interval_seconds, grace_period_seconds, last_rotated_at, next_rotation_at, created_at, updated_at
			  FROM rotation_policies
			  WHERE secret_name = $1`

	return scanRotationPolicy(querier.QueryRowContext(ctx, query, secretName))
}

// ListDue retrieves policies whose next rotation is at or before now, oldest first.
func (p *PostgreSQLRotationPolicyRepository) ListDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*vaultDomain.RotationPolicy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_name, interval_seconds, grace_period_seconds, last_rotated_at, next_rotation_at, created_at, updated_at
			  FROM rotation_policies
			  WHERE next_rotation_at <= $1
			  ORDER BY next_rotation_at ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list due rotation policies")
	}
	defer rows.Close()

	return collectRotationPolicies(rows)
}

// Update writes the schedule columns of an existing rotation policy.
func (p *PostgreSQLRotationPolicyRepository) Update(
	ctx context.Context,
	policy *vaultDomain.RotationPolicy,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE rotation_policies
			  SET interval_seconds = $1, grace_period_seconds = $2, last_rotated_at = $3, next_rotation_at = $4, updated_at = $5
			  WHERE id = $6`

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
func (p *PostgreSQLRotationPolicyRepository) Delete(ctx context.Context, secretName string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM rotation_policies WHERE secret_name = $1`

	_, err := querier.ExecContext(ctx, query, secretName)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete rotation policy")
	}
	return nil
}

// scanRotationPolicy scans a single rotation policy row.
func scanRotationPolicy(row *sql.Row) (*vaultDomain.RotationPolicy, error) {
	var policy vaultDomain.RotationPolicy
	var intervalSeconds, graceSeconds int64

	err := row.Scan(
		&policy.ID,
		&policy.SecretName,
		&intervalSeconds,
		&graceSeconds,
		&policy.LastRotatedAt,
		&policy.NextRotationAt,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrRotationPolicyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get rotation policy")
	}

	policy.Interval = time.Duration(intervalSeconds) * time.Second
	policy.GracePeriod = time.Duration(graceSeconds) * time.Second
	return &policy, nil
}

// collectRotationPolicies scans all rows into a slice of rotation policies.
func collectRotationPolicies(rows *sql.Rows) ([]*vaultDomain.RotationPolicy, error) {
	var policies []*vaultDomain.RotationPolicy
	for rows.Next() {
		var policy vaultDomain.RotationPolicy
		var intervalSeconds, graceSeconds int64
		if err := rows.Scan(
			&policy.ID,
			&policy.SecretName,
			&intervalSeconds,
			&graceSeconds,
			&policy.LastRotatedAt,
			&policy.NextRotationAt,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan rotation policy")
		}
		policy.Interval = time.Duration(intervalSeconds) * time.Second
		policy.GracePeriod = time.Duration(graceSeconds) * time.Second
		policies = append(policies, &policy)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list rotation policies")
	}
	return policies, nil
}

// NewPostgreSQLRotationPolicyRepository creates a new PostgreSQL rotation policy repository.
func NewPostgreSQLRotationPolicyRepository(db *sql.DB) *PostgreSQLRotationPolicyRepository {
	return &PostgreSQLRotationPolicyRepository{db: db}
}
