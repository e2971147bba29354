package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// MySQLRuleRepository implements rate limit rule persistence for MySQL.
type MySQLRuleRepository struct {
	db *sql.DB
}

// Create inserts a new rule.
func (m *MySQLRuleRepository) Create(ctx context.Context, rule *ratelimitDomain.Rule) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO ratelimit_rules
				(id, name, scope, algorithm, limit_count, window_seconds, burst_capacity, enabled, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

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
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ratelimitDomain.ErrRuleExists
		}
		return apperrors.Wrap(err, "failed to create rate limit rule")
	}
	return nil
}

// Update replaces the mutable fields of a rule by name.
func (m *MySQLRuleRepository) Update(ctx context.Context, rule *ratelimitDomain.Rule) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE ratelimit_rules
			  SET scope = ?, algorithm = ?, limit_count = ?, window_seconds = ?,
				  burst_capacity = ?, enabled = ?, updated_at = ?
			  WHERE name = ?`

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
func (m *MySQLRuleRepository) GetByName(
	ctx context.Context,
	name string,
) (*ratelimitDomain.Rule, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, scope, algorithm, limit_count, window_seconds, burst_capacity, enabled, created_at, updated_at
			  FROM ratelimit_rules
			  WHERE name = ?`

	return scanRule(querier.QueryRowContext(ctx, query, name))
}

// List retrieves rules ordered by name with pagination.
func (m *MySQLRuleRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*ratelimitDomain.Rule, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, scope, algorithm, limit_count, window_seconds, burst_capacity, enabled, created_at, updated_at
			  FROM ratelimit_rules
			  ORDER BY name ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list rate limit rules")
	}
	defer func() { _ = rows.Close() }()

	return collectRules(rows)
}

// Delete removes a rule by name.
func (m *MySQLRuleRepository) Delete(ctx context.Context, name string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM ratelimit_rules WHERE name = ?`, name)
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

// NewMySQLRuleRepository creates a new MySQL rule repository.
func NewMySQLRuleRepository(db *sql.DB) *MySQLRuleRepository {
	return &MySQLRuleRepository{db: db}
}
