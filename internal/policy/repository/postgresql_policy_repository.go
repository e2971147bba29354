// Package repository implements policy persistence for PostgreSQL and MySQL.
// The policies table tracks the current version; every version's rule set is
// kept in policy_versions so evaluations can pin old snapshots.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
)

// PostgreSQLPolicyRepository implements policy persistence for PostgreSQL.
type PostgreSQLPolicyRepository struct {
	db *sql.DB
}

// Create inserts the policy header row.
func (p *PostgreSQLPolicyRepository) Create(ctx context.Context, policy *policyDomain.Policy) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO policies (id, name, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)`

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
func (p *PostgreSQLPolicyRepository) InsertVersion(
	ctx context.Context,
	policy *policyDomain.Policy,
) error {
	querier := database.GetTx(ctx, p.db)

	rules, err := json.Marshal(policy.Rules)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode policy rules")
	}

	query := `INSERT INTO policy_versions (policy_id, version, rules, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err = querier.ExecContext(ctx, query, policy.ID, policy.Version, rules, policy.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to insert policy version")
	}
	return nil
}

// UpdateVersioned bumps the policy header to the new version only if the
// stored version still equals expectedVersion.
func (p *PostgreSQLPolicyRepository) UpdateVersioned(
	ctx context.Context,
	policy *policyDomain.Policy,
	expectedVersion uint,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE policies
			  SET version = $1, updated_at = $2
			  WHERE id = $3 AND version = $4`

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
func (p *PostgreSQLPolicyRepository) GetCurrent(
	ctx context.Context,
	id string,
) (*policyDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT p.id, p.name, p.version, pv.rules, p.created_at, p.updated_at
			  FROM policies p
			  JOIN policy_versions pv ON pv.policy_id = p.id AND pv.version = p.version
			  WHERE p.id = $1`

	return scanPolicy(querier.QueryRowContext(ctx, query, id))
}

// GetVersion retrieves a policy pinned at a specific version.
func (p *PostgreSQLPolicyRepository) GetVersion(
	ctx context.Context,
	id string,
	version uint,
) (*policyDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT p.id, p.name, pv.version, pv.rules, p.created_at, p.updated_at
			  FROM policies p
			  JOIN policy_versions pv ON pv.policy_id = p.id
			  WHERE p.id = $1 AND pv.version = $2`

	return scanPolicy(querier.QueryRowContext(ctx, query, id, version))
}

// List retrieves current policies ordered by name with pagination.
func (p *PostgreSQLPolicyRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT p.id, p.name, p.version, pv.rules, p.created_at, p.updated_at
			  FROM policies p
			  JOIN policy_versions pv ON pv.policy_id = p.id AND pv.version = p.version
			  ORDER BY p.name ASC
			  OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	defer func() { _ = rows.Close() }()

	return collectPolicies(rows)
}

// NewPostgreSQLPolicyRepository creates a new PostgreSQL policy repository.
func NewPostgreSQLPolicyRepository(db *sql.DB) *PostgreSQLPolicyRepository {
	return &PostgreSQLPolicyRepository{db: db}
}

// scanPolicy scans a single policy row with its rules JSON.
func scanPolicy(row *sql.Row) (*policyDomain.Policy, error) {
	var policy policyDomain.Policy
	var rules []byte

	err := row.Scan(
		&policy.ID,
		&policy.Name,
		&policy.Version,
		&rules,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, policyDomain.ErrPolicyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan policy")
	}

	if err := json.Unmarshal(rules, &policy.Rules); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode policy rules")
	}
	return &policy, nil
}

// collectPolicies scans all policy rows.
func collectPolicies(rows *sql.Rows) ([]*policyDomain.Policy, error) {
	var policies []*policyDomain.Policy

	for rows.Next() {
		var policy policyDomain.Policy
		var rules []byte

		err := rows.Scan(
			&policy.ID,
			&policy.Name,
			&policy.Version,
			&rules,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan policy")
		}

		if err := json.Unmarshal(rules, &policy.Rules); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode policy rules")
		}
		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate policies")
	}
	return policies, nil
}
