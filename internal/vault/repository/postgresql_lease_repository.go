package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
)

// PostgreSQLLeaseRepository implements database leases for PostgreSQL.
// A lease row is claimed with an upsert that only succeeds when the row is
// free, expired, or already held by the same holder, so exactly one scheduler
// instance wins each tick.
type PostgreSQLLeaseRepository struct {
	db *sql.DB
}

// Acquire attempts to claim the named lease for the holder until now+ttl.
// Returns true when the lease was acquired or renewed.
func (p *PostgreSQLLeaseRepository) Acquire(
	ctx context.Context,
	name, holder string,
	ttl time.Duration,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	now := time.Now().UTC()
	query := `INSERT INTO leases (name, holder, expires_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (name) DO UPDATE SET
				holder = EXCLUDED.holder,
				expires_at = EXCLUDED.expires_at
			  WHERE leases.expires_at < $4 OR leases.holder = EXCLUDED.holder`

	result, err := querier.ExecContext(ctx, query, name, holder, now.Add(ttl), now)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to acquire lease")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to acquire lease")
	}
	return rows > 0, nil
}

// Release frees the named lease if still held by the holder.
func (p *PostgreSQLLeaseRepository) Release(ctx context.Context, name, holder string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM leases WHERE name = $1 AND holder = $2`

	_, err := querier.ExecContext(ctx, query, name, holder)
	if err != nil {
		return apperrors.Wrap(err, "failed to release lease")
	}
	return nil
}

// NewPostgreSQLLeaseRepository creates a new PostgreSQL lease repository.
func NewPostgreSQLLeaseRepository(db *sql.DB) *PostgreSQLLeaseRepository {
	return &PostgreSQLLeaseRepository{db: db}
}
