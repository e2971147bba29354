package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// PostgreSQLAccessLogRepository implements SecretAccessLog persistence for PostgreSQL.
type PostgreSQLAccessLogRepository struct {
	db *sql.DB
}

// Create inserts a new access log row. Reads fail closed on any error here.
func (p *PostgreSQLAccessLogRepository) Create(
	ctx context.Context,
	log *vaultDomain.SecretAccessLog,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secret_access_logs (id, secret_name, version, client_name, action, success, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		log.ID,
		log.SecretName,
		log.Version,
		log.ClientName,
		log.Action,
		log.Success,
		log.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create access log")
	}
	return nil
}

// ListBySecretName retrieves access logs for a secret, newest first, with pagination.
func (p *PostgreSQLAccessLogRepository) ListBySecretName(
	ctx context.Context,
	secretName string,
	offset, limit int,
) ([]*vaultDomain.SecretAccessLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_name, version, client_name, action, success, created_at
			  FROM secret_access_logs
			  WHERE secret_name = $1
			  ORDER BY created_at DESC
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, secretName, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access logs")
	}
	defer rows.Close()

	return collectAccessLogs(rows)
}

// collectAccessLogs scans all rows into a slice of access logs.
func collectAccessLogs(rows *sql.Rows) ([]*vaultDomain.SecretAccessLog, error) {
	var logs []*vaultDomain.SecretAccessLog
	for rows.Next() {
		var log vaultDomain.SecretAccessLog
		if err := rows.Scan(
			&log.ID,
			&log.SecretName,
			&log.Version,
			&log.ClientName,
			&log.Action,
			&log.Success,
			&log.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access log")
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list access logs")
	}
	return logs, nil
}

// NewPostgreSQLAccessLogRepository creates a new PostgreSQL access log repository.
func NewPostgreSQLAccessLogRepository(db *sql.DB) *PostgreSQLAccessLogRepository {
	return &PostgreSQLAccessLogRepository{db: db}
}
