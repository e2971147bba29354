// Package postgresql implements DEK persistence for PostgreSQL.
// Uses native UUID and BYTEA types with transaction support via database.GetTx().
package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
)

// PostgreSQLDekRepository implements DEK persistence for PostgreSQL.
type PostgreSQLDekRepository struct {
	db *sql.DB
}

// Create inserts a new DEK into the PostgreSQL database.
func (p *PostgreSQLDekRepository) Create(ctx context.Context, dek *cryptoDomain.Dek) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO deks (id, key_provider_id, algorithm, wrapped_key, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

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

// Get retrieves a DEK by its ID from the PostgreSQL database.
func (p *PostgreSQLDekRepository) Get(
	ctx context.Context,
	dekID uuid.UUID,
) (*cryptoDomain.Dek, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, key_provider_id, algorithm, wrapped_key, created_at
			  FROM deks
			  WHERE id = $1`

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

// NewPostgreSQLDekRepository creates a new PostgreSQL DEK repository.
func NewPostgreSQLDekRepository(db *sql.DB) *PostgreSQLDekRepository {
	return &PostgreSQLDekRepository{db: db}
}
