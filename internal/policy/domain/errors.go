package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Policy error definitions.
var (
	// ErrPolicyNotFound indicates no policy exists with the requested id or
	// pinned version.
	ErrPolicyNotFound = errors.Wrap(errors.ErrNotFound, "policy not found")

	// ErrPolicyVersionConflict indicates the caller's expected version is
	// stale. The caller must re-read the policy and retry.
	ErrPolicyVersionConflict = errors.Wrap(errors.ErrConflict, "policy version conflict")
)
