// Package repository implements data persistence for managed secrets.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). Secret versions are immutable except for lifecycle status
// transitions.
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

// PostgreSQLSecretRepository implements Secret persistence for PostgreSQL.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

const postgresSecretColumns = `id, name, version, status, dek_id, ciphertext, nonce,
	created_by, created_at, deprecated_at, grace_expires_at, revoked_at`

// scanSecret scans a single secret row.
func scanPostgresSecret(row *sql.Row) (*vaultDomain.Secret, error) {
	var secret vaultDomain.Secret
	err := row.Scan(
		&secret.ID,
		&secret.Name,
		&secret.Version,
		&secret.Status,
		&secret.DekID,
		&secret.Ciphertext,
		&secret.Nonce,
		&secret.CreatedBy,
		&secret.CreatedAt,
		&secret.DeprecatedAt,
		&secret.GraceExpiresAt,
		&secret.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret")
	}
	return &secret, nil
}

// Create inserts a new secret version.
func (p *PostgreSQLSecretRepository) Create(ctx context.Context, secret *vaultDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secrets (id, name, version, status, dek_id, ciphertext, nonce,
				created_by, created_at, deprecated_at, grace_expires_at, revoked_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.Name,
		secret.Version,
		secret.Status,
		secret.DekID,
		secret.Ciphertext,
		secret.Nonce,
		secret.CreatedBy,
		secret.CreatedAt,
		secret.DeprecatedAt,
		secret.GraceExpiresAt,
		secret.RevokedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create secret")
	}
	return nil
}

// GetActive retrieves the active version for a secret name.
func (p *PostgreSQLSecretRepository) GetActive(
	ctx context.Context,
	name string,
) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSecretColumns + `
			  FROM secrets
			  WHERE name = $1 AND status = $2
			  ORDER BY version DESC
			  LIMIT 1`

	return scanPostgresSecret(querier.QueryRowContext(ctx, query, name, vaultDomain.StatusActive))
}

// GetLatest retrieves the highest version for a secret name regardless of status.
// Used to compute the next version number on rotation.
func (p *PostgreSQLSecretRepository) GetLatest(
	ctx context.Context,
	name string,
) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSecretColumns + `
			  FROM secrets
			  WHERE name = $1
			  ORDER BY version DESC
			  LIMIT 1`

	return scanPostgresSecret(querier.QueryRowContext(ctx, query, name))
}

// GetByNameAndVersion retrieves a specific secret version.
func (p *PostgreSQLSecretRepository) GetByNameAndVersion(
	ctx context.Context,
	name string,
	version uint,
) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSecretColumns + `
			  FROM secrets
			  WHERE name = $1 AND version = $2`

	return scanPostgresSecret(querier.QueryRowContext(ctx, query, name, version))
}

// UpdateStatus writes the lifecycle columns of a secret version.
func (p *PostgreSQLSecretRepository) UpdateStatus(ctx context.Context, secret *vaultDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secrets
			  SET status = $1, deprecated_at = $2, grace_expires_at = $3, revoked_at = $4
			  WHERE id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.Status,
		secret.DeprecatedAt,
		secret.GraceExpiresAt,
		secret.RevokedAt,
		secret.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret status")
	}
	return nil
}

// ListExpiredDeprecated retrieves deprecated versions whose grace window closed
// before the cutoff, oldest first.
func (p *PostgreSQLSecretRepository) ListExpiredDeprecated(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSecretColumns + `
			  FROM secrets
			  WHERE status = $1 AND grace_expires_at < $2
			  ORDER BY grace_expires_at ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, vaultDomain.StatusDeprecated, cutoff, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired deprecated secrets")
	}
	defer rows.Close()

	return collectSecrets(rows)
}

// ListVersions retrieves all versions for a secret name ordered by version ascending.
func (p *PostgreSQLSecretRepository) ListVersions(
	ctx context.Context,
	name string,
) ([]*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSecretColumns + `
			  FROM secrets
			  WHERE name = $1
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secret versions")
	}
	defer rows.Close()

	return collectSecrets(rows)
}

// List retrieves active secret versions ordered by name with pagination.
func (p *PostgreSQLSecretRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSecretColumns + `
			  FROM secrets
			  WHERE status = $1
			  ORDER BY name ASC
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, vaultDomain.StatusActive, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer rows.Close()

	return collectSecrets(rows)
}

// collectSecrets scans all rows into a slice of secrets.
func collectSecrets(rows *sql.Rows) ([]*vaultDomain.Secret, error) {
	var secrets []*vaultDomain.Secret
	for rows.Next() {
		var secret vaultDomain.Secret
		if err := rows.Scan(
			&secret.ID,
			&secret.Name,
			&secret.Version,
			&secret.Status,
			&secret.DekID,
			&secret.Ciphertext,
			&secret.Nonce,
			&secret.CreatedBy,
			&secret.CreatedAt,
			&secret.DeprecatedAt,
			&secret.GraceExpiresAt,
			&secret.RevokedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret")
		}
		secrets = append(secrets, &secret)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	return secrets, nil
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL Secret repository.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}
