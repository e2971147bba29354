// Package repository implements rate limit rule persistence for PostgreSQL
// and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// PostgreSQLRuleRepository implements rate limit rule persistence for PostgreSQL.
type PostgreSQLRuleRepository struct {
	db *sql.DB
}

// Create inserts a new rule.
func (p *PostgreSQLRuleRepository) Create(ctx context.Context, rule *ratelimitDomain.Rule) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO ratelimit_rules
				(id, name, scope, algorithm, limit_count, window_seconds, burst_capacity, enabled, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.Name,
		rule.Scope,
		rule.Algorithm,
		rule.Limit,
		int64(rule.Window.Seconds()),
		rule.BurstCapacity,
		rule.Enabled,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return ratelimitDomain.ErrRuleExists
		}
		return apperrors.Wrap(err, "failed to create rate limit rule")
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

// Update replaces the mutable fields of a rule by name.
func (p *PostgreSQLRuleRepository) Update(ctx context.Context, rule *ratelimitDomain.Rule) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE ratelimit_rules
			  SET scope = $1, algorithm = $2, limit_count = $3, window_seconds = $4,
				  burst_capacity = $5, enabled = $6, updated_at = $7
			  WHERE name = $8`

	result, err := querier.ExecContext(
		ctx,
		query,
		rule.Scope,
		rule.Algorithm,
		rule.Limit,
		int64(rule.Window.Seconds()),
		rule.BurstCapacity,
		rule.Enabled,
		rule.UpdatedAt,
		rule.Name,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update rate limit rule")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return ratelimitDomain.ErrRuleNotFound
	}
	return nil
}

// GetByName retrieves a rule by its unique name.
func (p *PostgreSQLRuleRepository) GetByName(
	ctx context.Context,
	name string,
) (*ratelimitDomain.Rule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, scope, algorithm, limit_count, window_seconds, burst_capacity, enabled, created_at, updated_at
			  FROM ratelimit_rules
			  WHERE name = $1`

	return scanRule(querier.QueryRowContext(ctx, query, name))
}

// List retrieves rules ordered by name with pagination.
func (p *PostgreSQLRuleRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*ratelimitDomain.Rule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, scope, algorithm, limit_count, window_seconds, burst_capacity, enabled, created_at, updated_at
			  FROM ratelimit_rules
			  ORDER BY name ASC
			  OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list rate limit rules")
	}
	defer func() { _ = rows.Close() }()

	return collectRules(rows)
}

// Delete removes a rule by name.
func (p *PostgreSQLRuleRepository) Delete(ctx context.Context, name string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM ratelimit_rules WHERE name = $1`, name)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete rate limit rule")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return ratelimitDomain.ErrRuleNotFound
	}
	return nil
}

// NewPostgreSQLRuleRepository creates a new PostgreSQL rule repository.
func NewPostgreSQLRuleRepository(db *sql.DB) *PostgreSQLRuleRepository {
	return &PostgreSQLRuleRepository{db: db}
}

// scanRule scans a single rule row.
func scanRule(row *sql.Row) (*ratelimitDomain.Rule, error) {
	var rule ratelimitDomain.Rule
	var windowSeconds int64

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Scope,
		&rule.Algorithm,
		&rule.Limit,
		&windowSeconds,
		&rule.BurstCapacity,
		&rule.Enabled,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ratelimitDomain.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan rate limit rule")
	}

	rule.Window = time.Duration(windowSeconds) * time.Second
	return &rule, nil
}

// collectRules scans all rule rows.
func collectRules(rows *sql.Rows) ([]*ratelimitDomain.Rule, error) {
	var rules []*ratelimitDomain.Rule

	for rows.Next() {
		var rule ratelimitDomain.Rule
		var windowSeconds int64

		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Scope,
			&rule.Algorithm,
			&rule.Limit,
			&windowSeconds,
			&rule.BurstCapacity,
			&rule.Enabled,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan rate limit rule")
		}

		rule.Window = time.Duration(windowSeconds) * time.Second
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate rate limit rules")
	}
	return rules, nil
}
