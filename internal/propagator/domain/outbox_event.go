package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the delivery status of an outbox event.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// OutboxEvent is the persisted form of a change event awaiting dispatch.
//
// Writers enqueue outbox rows best-effort after their mutation commits; the
// dispatcher drains pending rows into the in-process propagator with retries
// and exponential backoff. A row is only marked processed after the propagator
// accepted it, giving at-least-once delivery.
type OutboxEvent struct {
	ID          uuid.UUID
	Kind        EntityKind
	Key         string
	Version     uint64
	Payload     []byte
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToChangeEvent converts the outbox row into the wire-level change event.
func (o *OutboxEvent) ToChangeEvent() *ChangeEvent {
	return &ChangeEvent{
		ID:        o.ID,
		Kind:      o.Kind,
		Key:       o.Key,
		Version:   o.Version,
		Payload:   o.Payload,
		CreatedAt: o.CreatedAt,
	}
}
