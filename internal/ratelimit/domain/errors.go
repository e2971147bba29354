package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Rate limit error definitions.
var (
	// ErrRuleNotFound indicates no rule exists with the requested name.
	ErrRuleNotFound = errors.Wrap(errors.ErrNotFound, "rate limit rule not found")

	// ErrRuleExists indicates a rule with the same name already exists.
	ErrRuleExists = errors.Wrap(errors.ErrConflict, "rate limit rule already exists")

	// ErrStoreContention indicates the counter store rejected repeated
	// compare-and-swap attempts under heavy concurrent load.
	ErrStoreContention = errors.Wrap(errors.ErrUnavailable, "counter store contention")
)
