package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Propagation error definitions.
var (
	// ErrQueueFull indicates the propagator's bounded queue rejected an
	// event. Callers treat this as a transient delivery failure; the
	// originating write is never rolled back.
	ErrQueueFull = errors.Wrap(errors.ErrUnavailable, "propagator queue full")

	// ErrStreamNotFound indicates a subscription referenced an unknown
	// entity kind.
	ErrStreamNotFound = errors.Wrap(errors.ErrNotFound, "stream not found")
)
