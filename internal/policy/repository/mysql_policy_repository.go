package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
)

// MySQLPolicyRepository implements policy persistence for MySQL.
type MySQLPolicyRepository struct {
	db *sql.DB
}

// Create inserts the policy header row.
func (m *MySQLPolicyRepository) Create(ctx context.Context, policy *policyDomain.Policy) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO policies (id, name, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		policy.ID,
		policy.Name,
		policy.Version,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create policy")
	}
	return nil
}

// InsertVersion appends one immutable version snapshot.
func (m *MySQLPolicyRepository) InsertVersion(
	ctx context.Context,
	policy *policyDomain.Policy,
) error {
	querier := database.GetTx(ctx, m.db)

	rules, err := json.Marshal(policy.Rules)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode policy rules")
	}

	query := `INSERT INTO policy_versions (policy_id, version, rules, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, policy.ID, policy.Version, rules, policy.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to insert policy version")
	}
	return nil
}

// UpdateVersioned bumps the policy header to the new version only if the
// stored version still equals expectedVersion.
func (m *MySQLPolicyRepository) UpdateVersioned(
	ctx context.Context,
	policy *policyDomain.Policy,
	expectedVersion uint,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE policies
			  SET version = ?, updated_at = ?
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		policy.Version,
		policy.UpdatedAt,
		policy.ID,
		expectedVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update policy")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return policyDomain.ErrPolicyVersionConflict
	}
	return nil
}

// GetCurrent retrieves a policy with its current rule set.
func (m *MySQLPolicyRepository) GetCurrent(
	ctx context.Context,
	id string,
) (*policyDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT p.id, p.name, p.version, pv.rules, p.created_at, p.updated_at
			  FROM policies p
			  JOIN policy_versions pv ON pv.policy_id = p.id AND pv.version = p.version
			  WHERE p.id = ?`

	return scanPolicy(querier.QueryRowContext(ctx, query, id))
}

// GetVersion retrieves a policy pinned at a specific version.
func (m *MySQLPolicyRepository) GetVersion(
	ctx context.Context,
	id string,
	version uint,
) (*policyDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT p.id, p.name, pv.version, pv.rules, p.created_at, p.updated_at
			  FROM policies p
			  JOIN policy_versions pv ON pv.policy_id = p.id
			  WHERE p.id = ? AND pv.version = ?`

	return scanPolicy(querier.QueryRowContext(ctx, query, id, version))
}

// List retrieves current policies ordered by name with pagination.
func (m *MySQLPolicyRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT p.id, p.name, p.version, pv.rules, p.created_at, p.updated_at
			  FROM policies p
			  JOIN policy_versions pv ON pv.policy_id = p.id AND pv.version = p.version
			  ORDER BY p.name ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	defer func() { _ = rows.Close() }()

	return collectPolicies(rows)
}

// NewMySQLPolicyRepository creates a new MySQL policy repository.
func NewMySQLPolicyRepository(db *sql.DB) *MySQLPolicyRepository {
	return &MySQLPolicyRepository{db: db}
}
