package usecase

import (
	"context"

	"github.com/google/uuid"

	configDomain "github.com/allisson/controlplane/internal/configstore/domain"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// ConfigRepository defines persistence operations for config entries and revisions.
type ConfigRepository interface {
	// Create inserts a new entry at version 1; returns ErrConflict if the
	// (key, environment) pair already exists.
	Create(ctx context.Context, entry *configDomain.ConfigEntry) error

	// GetExact retrieves the entry for the exact (key, environment) pair,
	// including soft-deleted entries.
	GetExact(ctx context.Context, key, environment string) (*configDomain.ConfigEntry, error)

	// UpdateVersioned applies a compare-and-swap update guarded by expectedVersion;
	// returns ErrConflict when the stored version differs.
	UpdateVersioned(ctx context.Context, entry *configDomain.ConfigEntry, expectedVersion uint) error

	// CreateRevision appends a revision to the entry's append-only history.
	CreateRevision(ctx context.Context, revision *configDomain.ConfigRevision) error

	// ListRevisions retrieves an entry's history ordered by version ascending.
	ListRevisions(ctx context.Context, entryID uuid.UUID) ([]*configDomain.ConfigRevision, error)

	// List retrieves non-deleted entries for an environment with pagination.
	List(ctx context.Context, environment string, offset, limit int) ([]*configDomain.ConfigEntry, error)
}

// ChangePublisher enqueues change events for asynchronous fan-out.
// Publication is best-effort from the writer's perspective: failures are
// logged and never roll back the originating mutation.
type ChangePublisher interface {
	Publish(
		ctx context.Context,
		kind propagatorDomain.EntityKind,
		key string,
		version uint64,
		payload []byte,
	) error
}

// ConfigUseCase defines business operations for versioned configuration.
type ConfigUseCase interface {
	// Get retrieves the entry for (key, environment), falling back to the
	// global environment when no environment-specific override exists.
	Get(ctx context.Context, key, environment string) (*configDomain.ConfigEntry, error)

	// Put writes a new version of the entry. expectedVersion 0 creates the
	// entry; any other value must match the current version or the write is
	// rejected with ErrVersionConflict.
	Put(
		ctx context.Context,
		key, environment string,
		value []byte,
		expectedVersion uint,
		author string,
	) (*configDomain.ConfigEntry, error)

	// Delete soft-deletes the entry, recording the deletion in its history.
	// Guarded by expectedVersion like Put.
	Delete(ctx context.Context, key, environment string, expectedVersion uint, author string) error

	// GetHistory retrieves the append-only history for the exact (key, environment).
	GetHistory(ctx context.Context, key, environment string) ([]*configDomain.ConfigRevision, error)

	// List retrieves non-deleted entries for an environment with pagination.
	List(ctx context.Context, environment string, offset, limit int) ([]*configDomain.ConfigEntry, error)
}
