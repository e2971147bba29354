package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// MySQLOutboxRepository implements outbox event persistence for MySQL.
type MySQLOutboxRepository struct {
	db *sql.DB
}

// Create inserts a new outbox event.
func (m *MySQLOutboxRepository) Create(
	ctx context.Context,
	event *propagatorDomain.OutboxEvent,
) error {
	querier := database.GetTx(ctx, m.db)

	query := "INSERT INTO outbox_events " +
		"(id, kind, `key`, version, payload, status, retries, last_error, processed_at, created_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	_, err := querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.Kind,
		event.Key,
		event.Version,
		event.Payload,
		event.Status,
		event.Retries,
		event.LastError,
		event.ProcessedAt,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetPendingEvents retrieves pending events oldest first, skipping rows
// locked by a concurrent dispatcher.
func (m *MySQLOutboxRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*propagatorDomain.OutboxEvent, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, kind, `key`, version, payload, status, retries, last_error, processed_at, created_at, updated_at " +
		"FROM outbox_events " +
		"WHERE status = ? " +
		"ORDER BY created_at ASC " +
		"LIMIT ? " +
		"FOR UPDATE SKIP LOCKED"

	rows, err := querier.QueryContext(ctx, query, propagatorDomain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}
	defer func() { _ = rows.Close() }()

	return collectOutboxEvents(rows)
}

// Update replaces the delivery state of an outbox event.
func (m *MySQLOutboxRepository) Update(
	ctx context.Context,
	event *propagatorDomain.OutboxEvent,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE outbox_events
			  SET status = ?, retries = ?, last_error = ?, processed_at = ?, updated_at = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		event.Status,
		event.Retries,
		event.LastError,
		event.ProcessedAt,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	return nil
}

// NewMySQLOutboxRepository creates a new MySQL outbox repository.
func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{db: db}
}
