// Package domain defines the core domain models for versioned configuration.
// Config entries are scoped by environment, mutated only through optimistic
// concurrency control, and keep an append-only revision history.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EnvironmentGlobal is the fallback environment consulted when a lookup finds
// no entry for the requested environment. An environment-specific entry, once
// written, fully shadows the global value.
const EnvironmentGlobal = "global"

// ConfigEntry represents the current version of a configuration value.
type ConfigEntry struct {
	// ID is the unique identifier for this entry (UUIDv7).
	ID uuid.UUID
	// Key is the logical configuration key (e.g., "db.timeout").
	Key string
	// Environment scopes the entry (e.g., "global", "prod", "staging").
	Environment string
	// Value is the opaque configuration payload.
	Value []byte
	// Version is the monotonically increasing version for this (key, environment).
	// It always equals the number of revisions recorded for the entry.
	Version uint
	// Deleted marks a soft-deleted entry. Deleted entries keep their history
	// and version counter; lookups skip them.
	Deleted bool
	// CreatedBy identifies the writer of version 1.
	CreatedBy string
	// UpdatedBy identifies the writer of the current version.
	UpdatedBy string
	// CreatedAt is the UTC timestamp when version 1 was written.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp when the current version was written.
	UpdatedAt time.Time
}

// ConfigRevision is one entry of the append-only history for a config entry.
// Revisions are never mutated or deleted.
type ConfigRevision struct {
	// ID is the unique identifier for this revision (UUIDv7).
	ID uuid.UUID
	// EntryID references the config entry this revision belongs to.
	EntryID uuid.UUID
	// Value is the payload as of this revision.
	Value []byte
	// Version is the version number this revision produced.
	Version uint
	// Deleted records whether this revision was a soft delete.
	Deleted bool
	// ChangedBy identifies the writer of this revision.
	ChangedBy string
	// ChangedAt is the UTC timestamp of the write.
	ChangedAt time.Time
}
