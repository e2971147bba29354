package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// OutboxPublisher persists change events as pending outbox rows. It is the
// ChangePublisher the config, vault, and policy use cases write through:
// enqueueing after a committed mutation is best-effort and a failure here is
// only logged by the caller, never propagated to the client.
type OutboxPublisher struct {
	outboxRepo OutboxRepository
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(outboxRepo OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{outboxRepo: outboxRepo}
}

// Publish stores one pending outbox event for the dispatcher to drain.
func (p *OutboxPublisher) Publish(
	ctx context.Context,
	kind propagatorDomain.EntityKind,
	key string,
	version uint64,
	payload []byte,
) error {
	now := time.Now().UTC()

	return p.outboxRepo.Create(ctx, &propagatorDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		Key:       key,
		Version:   version,
		Payload:   payload,
		Status:    propagatorDomain.OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
