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

// MySQLSecretRepository implements Secret persistence for MySQL.
type MySQLSecretRepository struct {
	db *sql.DB
}

const mysqlSecretColumns = `id, name, version, status, dek_id, ciphertext, nonce,
	created_by, created_at, deprecated_at, grace_expires_at, revoked_at`

// scanMySQLSecret scans a single secret row.
func scanMySQLSecret(row *sql.Row) (*vaultDomain.Secret, error) {
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
func (m *MySQLSecretRepository) Create(ctx context.Context, secret *vaultDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO secrets (id, name, version, status, dek_id, ciphertext, nonce,
				created_by, created_at, deprecated_at, grace_expires_at, revoked_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

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
func (m *MySQLSecretRepository) GetActive(
	ctx context.Context,
	name string,
) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlSecretColumns + `
			  FROM secrets
			  WHERE name = ? AND status = ?
			  ORDER BY version DESC
			  LIMIT 1`

	return scanMySQLSecret(querier.QueryRowContext(ctx, query, name, vaultDomain.StatusActive))
}

// GetLatest retrieves the highest version for a secret name regardless of status.
func (m *MySQLSecretRepository) GetLatest(
	ctx context.Context,
	name string,
) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlSecretColumns + `
			  FROM secrets
			  WHERE name = ?
			  ORDER BY version DESC
			  LIMIT 1`

	return scanMySQLSecret(querier.QueryRowContext(ctx, query, name))
}

// GetByNameAndVersion retrieves a specific secret version.
func (m *MySQLSecretRepository) GetByNameAndVersion(
	ctx context.Context,
	name string,
	version uint,
) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlSecretColumns + `
			  FROM secrets
			  WHERE name = ? AND version = ?`

	return scanMySQLSecret(querier.QueryRowContext(ctx, query, name, version))
}

// UpdateStatus writes the lifecycle columns of a secret version.
func (m *MySQLSecretRepository) UpdateStatus(ctx context.Context, secret *vaultDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE secrets
			  SET status = ?, deprecated_at = ?, grace_expires_at = ?, revoked_at = ?
			  WHERE id = ?`

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
func (m *MySQLSecretRepository) ListExpiredDeprecated(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlSecretColumns + `
			  FROM secrets
			  WHERE status = ? AND grace_expires_at < ?
			  ORDER BY grace_expires_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, vaultDomain.StatusDeprecated, cutoff, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired deprecated secrets")
	}
	defer rows.Close()

	return collectSecrets(rows)
}

// ListVersions retrieves all versions for a secret name ordered by version ascending.
func (m *MySQLSecretRepository) ListVersions(
	ctx context.Context,
	name string,
) ([]*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlSecretColumns + `
			  FROM secrets
			  WHERE name = ?
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secret versions")
	}
	defer rows.Close()

	return collectSecrets(rows)
}

// List retrieves active secret versions ordered by name with pagination.
func (m *MySQLSecretRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlSecretColumns + `
			  FROM secrets
			  WHERE status = ?
			  ORDER BY name ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, vaultDomain.StatusActive, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer rows.Close()

	return collectSecrets(rows)
}

// NewMySQLSecretRepository creates a new MySQL Secret repository.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}
