package domain

import (
	"time"

	"github.com/google/uuid"
)

// SecretAccessLog records one access to a managed secret. The log row is
// written before any plaintext leaves the vault: if the write fails, the read
// fails. An unaudited disclosure is worse than a refused read.
type SecretAccessLog struct {
	ID         uuid.UUID
	SecretName string
	Version    uint
	ClientName string
	Action     AccessAction
	Success    bool
	CreatedAt  time.Time
}
