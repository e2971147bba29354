package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// MySQLAccessLogRepository implements SecretAccessLog persistence for MySQL.
type MySQLAccessLogRepository struct {
	db *sql.DB
}

// Create inserts a new access log row. Reads fail closed on any error here.
func (m *MySQLAccessLogRepository) Create(
	ctx context.Context,
	log *vaultDomain.SecretAccessLog,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO secret_access_logs (id, secret_name, version, client_name, action, success, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

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
func (m *MySQLAccessLogRepository) ListBySecretName(
	ctx context.Context,
	secretName string,
	offset, limit int,
) ([]*vaultDomain.SecretAccessLog, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret_name, version, client_name, action, success, created_at
			  FROM secret_access_logs
			  WHERE secret_name = ?
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, secretName, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access logs")
	}
	defer rows.Close()

	return collectAccessLogs(rows)
}

// NewMySQLAccessLogRepository creates a new MySQL access log repository.
func NewMySQLAccessLogRepository(db *sql.DB) *MySQLAccessLogRepository {
	return &MySQLAccessLogRepository{db: db}
}
