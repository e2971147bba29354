// Package http provides HTTP middleware and handlers for access control.
package http

import (
	"context"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
)

// clientKey is a context key type for storing authenticated clients.
type clientKey struct{}

// WithClient stores an authenticated client in the context.
// This is called by the authentication middleware after successful token validation.
func WithClient(ctx context.Context, client *accessDomain.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// GetClient retrieves an authenticated client from the context.
// Returns (client, true) if a client is present, or (nil, false) if no client was set.
func GetClient(ctx context.Context) (*accessDomain.Client, bool) {
	client, ok := ctx.Value(clientKey{}).(*accessDomain.Client)
	return client, ok
}
