// Package domain defines the change propagation domain entities.
// Successful mutations of config entries, secrets, and policies are fanned out
// to subscribers as ordered, per-stream change events with at-least-once
// delivery; consumers dedupe by (kind, key, version).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind identifies which control plane entity a change event belongs to.
type EntityKind string

const (
	KindConfig EntityKind = "config"
	KindSecret EntityKind = "secret"
	KindPolicy EntityKind = "policy"
)

// ChangeEvent is a single versioned change notification.
// Events for the same (Kind, Key) stream are delivered in version order to any
// given subscriber; events for different streams may interleave arbitrarily.
type ChangeEvent struct {
	// ID is the unique identifier for this event (UUIDv7).
	ID uuid.UUID
	// Kind is the entity kind the event belongs to.
	Kind EntityKind
	// Key is the entity key within the kind (e.g., "prod/db.timeout", "api-key").
	Key string
	// Version is the entity version produced by the originating mutation.
	Version uint64
	// Payload is an opaque JSON document describing the change.
	Payload []byte
	// CreatedAt is the UTC timestamp when the originating mutation committed.
	CreatedAt time.Time
}

// StreamID returns the logical stream identifier for per-key ordering.
func (e *ChangeEvent) StreamID() string {
	return string(e.Kind) + "/" + e.Key
}
