package domain

import (
	"github.com/allisson/controlplane/internal/errors"
)

// Access control errors.
var (
	// ErrClientNotFound indicates a client with the specified ID was not found.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrTokenNotFound indicates a token with the specified hash was not found.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrInvalidCredentials indicates authentication failed. The same error is
	// returned for unknown clients, wrong secrets, and expired or revoked tokens
	// to prevent enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrClientInactive indicates the client exists but cannot authenticate.
	ErrClientInactive = errors.Wrap(errors.ErrForbidden, "client is not active")

	// ErrInvalidRole indicates an unknown role was supplied.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")
)
