package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Config-specific error definitions.
var (
	// ErrConfigNotFound indicates no entry exists for the key in the requested
	// environment or the global fallback.
	ErrConfigNotFound = errors.Wrap(errors.ErrNotFound, "config entry not found")

	// ErrVersionConflict indicates the caller's expected version is stale.
	// The caller must re-read the entry and retry with the current version;
	// last-writer-wins overwrites are never applied.
	ErrVersionConflict = errors.Wrap(errors.ErrConflict, "config version conflict")
)
