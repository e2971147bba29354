package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateToken(t *testing.T) {
	tokenService := NewTokenService()

	plainToken, tokenHash, err := tokenService.GenerateToken()

	require.NoError(t, err)
	assert.NotEmpty(t, plainToken)
	assert.NotEmpty(t, tokenHash)
	assert.NotEqual(t, plainToken, tokenHash)
	assert.Len(t, tokenHash, 64, "SHA-256 hex digest")
}

func TestTokenService_GenerateToken_Unique(t *testing.T) {
	tokenService := NewTokenService()

	first, _, err := tokenService.GenerateToken()
	require.NoError(t, err)
	second, _, err := tokenService.GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_HashToken_Deterministic(t *testing.T) {
	tokenService := NewTokenService()

	plainToken, tokenHash, err := tokenService.GenerateToken()
	require.NoError(t, err)

	// Lookup on every request depends on re-hashing to the same value.
	assert.Equal(t, tokenHash, tokenService.HashToken(plainToken))
	assert.NotEqual(t, tokenHash, tokenService.HashToken(plainToken+"x"))
}
