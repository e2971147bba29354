package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
)

// MySQLLeaseRepository implements database leases for MySQL.
// MySQL has no conditional upsert, so acquisition deletes expired rows first
// and then relies on the primary key to reject competing inserts.
type MySQLLeaseRepository struct {
	db *sql.DB
}

// Acquire attempts to claim the named lease for the holder until now+ttl.
// Returns true when the lease was acquired or renewed.
func (m *MySQLLeaseRepository) Acquire(
	ctx context.Context,
	name, holder string,
	ttl time.Duration,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	now := time.Now().UTC()

	// Drop the row if the lease expired so the insert below can claim it.
	deleteQuery := `DELETE FROM leases WHERE name = ? AND expires_at < ?`
	if _, err := querier.ExecContext(ctx, deleteQuery, name, now); err != nil {
		return false, apperrors.Wrap(err, "failed to acquire lease")
	}

	insertQuery := `INSERT IGNORE INTO leases (name, holder, expires_at) VALUES (?, ?, ?)`
	result, err := querier.ExecContext(ctx, insertQuery, name, holder, now.Add(ttl))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to acquire lease")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to acquire lease")
	}
	if rows > 0 {
		return true, nil
	}

	// The row exists and is unexpired; renew it if we are already the holder.
	renewQuery := `UPDATE leases SET expires_at = ? WHERE name = ? AND holder = ?`
	result, err = querier.ExecContext(ctx, renewQuery, now.Add(ttl), name, holder)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to renew lease")
	}

	rows, err = result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to renew lease")
	}
	return rows > 0, nil
}

// Release frees the named lease if still held by the holder.
func (m *MySQLLeaseRepository) Release(ctx context.Context, name, holder string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM leases WHERE name = ? AND holder = ?`

	_, err := querier.ExecContext(ctx, query, name, holder)
	if err != nil {
		return apperrors.Wrap(err, "failed to release lease")
	}
	return nil
}

// NewMySQLLeaseRepository creates a new MySQL lease repository.
func NewMySQLLeaseRepository(db *sql.DB) *MySQLLeaseRepository {
	return &MySQLLeaseRepository{db: db}
}
