// Package repository implements data persistence for versioned configuration.
// Repositories support both PostgreSQL and MySQL with optimistic concurrency
// control on the entry version and an append-only revision table.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	configDomain "github.com/allisson/controlplane/internal/configstore/domain"
	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
)

// PostgreSQLConfigRepository implements config entry persistence for PostgreSQL databases.
type PostgreSQLConfigRepository struct {
	db *sql.DB
}

// Create inserts a new config entry at version 1.
// Returns ErrConflict if an entry already exists for (key, environment).
func (p *PostgreSQLConfigRepository) Create(ctx context.Context, entry *configDomain.ConfigEntry) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO config_entries (id, key, environment, value, version, deleted, created_by, updated_by, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (key, environment) DO NOTHING`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Key,
		entry.Environment,
		entry.Value,
		entry.Version,
		entry.Deleted,
		entry.CreatedBy,
		entry.UpdatedBy,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create config entry")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to create config entry")
	}
	if rows == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// GetExact retrieves the entry for the exact (key, environment) pair,
// including soft-deleted entries so callers can inspect the version counter.
func (p *PostgreSQLConfigRepository) GetExact(
	ctx context.Context,
	key, environment string,
) (*configDomain.ConfigEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, key, environment, value, version, deleted, created_by, updated_by, created_at, updated_at
			  FROM config_entries
			  WHERE key = $1 AND environment = $2
			  LIMIT 1`

	var entry configDomain.ConfigEntry
	err := querier.QueryRowContext(ctx, query, key, environment).Scan(
		&entry.ID,
		&entry.Key,
		&entry.Environment,
		&entry.Value,
		&entry.Version,
		&entry.Deleted,
		&entry.CreatedBy,
		&entry.UpdatedBy,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get config entry")
	}

	return &entry, nil
}

// UpdateVersioned applies a compare-and-swap update: the row is only written
// if its current version equals expectedVersion. Returns ErrConflict when the
// version is stale.
func (p *PostgreSQLConfigRepository) UpdateVersioned(
	ctx context.Context,
	entry *configDomain.ConfigEntry,
	expectedVersion uint,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE config_entries
			  SET value = $1, version = $2, deleted = $3, updated_by = $4, updated_at = $5
			  WHERE id = $6 AND version = $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.Value,
		entry.Version,
		entry.Deleted,
		entry.UpdatedBy,
		entry.UpdatedAt,
		entry.ID,
		expectedVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update config entry")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update config entry")
	}
	if rows == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// CreateRevision appends a revision to the entry's history.
func (p *PostgreSQLConfigRepository) CreateRevision(
	ctx context.Context,
	revision *configDomain.ConfigRevision,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO config_revisions (id, entry_id, value, version, deleted, changed_by, changed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		revision.ID,
		revision.EntryID,
		revision.Value,
		revision.Version,
		revision.Deleted,
		revision.ChangedBy,
		revision.ChangedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create config revision")
	}
	return nil
}

// ListRevisions retrieves the full history of an entry ordered by version ascending.
func (p *PostgreSQLConfigRepository) ListRevisions(
	ctx context.Context,
	entryID uuid.UUID,
) ([]*configDomain.ConfigRevision, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, entry_id, value, version, deleted, changed_by, changed_at
			  FROM config_revisions
			  WHERE entry_id = $1
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list config revisions")
	}
	defer rows.Close()

	var revisions []*configDomain.ConfigRevision
	for rows.Next() {
		var revision configDomain.ConfigRevision
		if err := rows.Scan(
			&revision.ID,
			&revision.EntryID,
			&revision.Value,
			&revision.Version,
			&revision.Deleted,
			&revision.ChangedBy,
			&revision.ChangedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan config revision")
		}
		revisions = append(revisions, &revision)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list config revisions")
	}

	return revisions, nil
}

// List retrieves non-deleted entries for an environment ordered by key with pagination.
func (p *PostgreSQLConfigRepository) List(
	ctx context.Context,
	environment string,
	offset, limit int,
) ([]*configDomain.ConfigEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, key, environment, value, version, deleted, created_by, updated_by, created_at, updated_at
			  FROM config_entries
			  WHERE environment = $1 AND deleted = FALSE
			  ORDER BY key ASC
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, environment, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list config entries")
	}
	defer rows.Close()

	var entries []*configDomain.ConfigEntry
	for rows.Next() {
		var entry configDomain.ConfigEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Key,
			&entry.Environment,
			&entry.Value,
			&entry.Version,
			&entry.Deleted,
			&entry.CreatedBy,
			&entry.UpdatedBy,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan config entry")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list config entries")
	}

	return entries, nil
}

// NewPostgreSQLConfigRepository creates a new PostgreSQL config repository instance.
func NewPostgreSQLConfigRepository(db *sql.DB) *PostgreSQLConfigRepository {
	return &PostgreSQLConfigRepository{db: db}
}
