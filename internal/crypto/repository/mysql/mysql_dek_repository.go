// Package mysql implements DEK persistence for MySQL.
package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
)

// MySQLDekRepository implements DEK persistence for MySQL.
type MySQLDekRepository struct {
	db *sql.DB
}

// Create inserts a new DEK into the MySQL database.
func (m *MySQLDekRepository) Create(ctx context.Context, dek *cryptoDomain.Dek) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO deks (id, key_provider_id, algorithm, wrapped_key, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		dek.ID,
		dek.KeyProviderID,
		dek.Algorithm,
		dek.WrappedKey,
		dek.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create dek")
	}
	return nil
}

// Get retrieves a DEK by its ID from the MySQL database.
func (m *MySQLDekRepository) Get(
	ctx context.Context,
	dekID uuid.UUID,
) (*cryptoDomain.Dek, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, key_provider_id, algorithm, wrapped_key, created_at
			  FROM deks
			  WHERE id = ?`

	var dek cryptoDomain.Dek
	err := querier.QueryRowContext(ctx, query, dekID).Scan(
		&dek.ID,
		&dek.KeyProviderID,
		&dek.Algorithm,
		&dek.WrappedKey,
		&dek.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cryptoDomain.ErrDekNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get dek")
	}

	return &dek, nil
}

// NewMySQLDekRepository creates a new MySQL DEK repository.
func NewMySQLDekRepository(db *sql.DB) *MySQLDekRepository {
	return &MySQLDekRepository{db: db}
}
