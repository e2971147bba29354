// Package usecase implements change propagation: the transactional outbox
// publisher, the dispatcher draining it, and the in-process broker fanning
// events out to subscribers.
package usecase

import (
	"context"

	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// OutboxRepository defines outbox event persistence operations.
type OutboxRepository interface {
	Create(ctx context.Context, event *propagatorDomain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*propagatorDomain.OutboxEvent, error)
	Update(ctx context.Context, event *propagatorDomain.OutboxEvent) error
}

// EventSink accepts drained outbox events for fan-out. The broker implements
// it; the dispatcher only depends on this interface.
type EventSink interface {
	Publish(event *propagatorDomain.ChangeEvent) error
}
