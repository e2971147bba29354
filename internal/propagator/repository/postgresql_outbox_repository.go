// Package repository implements outbox event persistence for PostgreSQL and
// MySQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// PostgreSQLOutboxRepository implements outbox event persistence for PostgreSQL.
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// Create inserts a new outbox event.
func (p *PostgreSQLOutboxRepository) Create(
	ctx context.Context,
	event *propagatorDomain.OutboxEvent,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO outbox_events
				(id, kind, key, version, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

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
func (p *PostgreSQLOutboxRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*propagatorDomain.OutboxEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, kind, key, version, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM outbox_events
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, propagatorDomain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}
	defer func() { _ = rows.Close() }()

	return collectOutboxEvents(rows)
}

// Update replaces the delivery state of an outbox event.
func (p *PostgreSQLOutboxRepository) Update(
	ctx context.Context,
	event *propagatorDomain.OutboxEvent,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events
			  SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = $5
			  WHERE id = $6`

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

// NewPostgreSQLOutboxRepository creates a new PostgreSQL outbox repository.
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{db: db}
}

// collectOutboxEvents scans all outbox event rows.
func collectOutboxEvents(rows *sql.Rows) ([]*propagatorDomain.OutboxEvent, error) {
	var events []*propagatorDomain.OutboxEvent

	for rows.Next() {
		var event propagatorDomain.OutboxEvent

		err := rows.Scan(
			&event.ID,
			&event.Kind,
			&event.Key,
			&event.Version,
			&event.Payload,
			&event.Status,
			&event.Retries,
			&event.LastError,
			&event.ProcessedAt,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox events")
	}
	return events, nil
}
