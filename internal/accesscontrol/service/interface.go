// Package service provides technical services for access control operations.
//
// Client secrets are hashed with Argon2id so a database leak does not expose
// credentials; bearer tokens are hashed with SHA-256 so they can be looked up
// by hash on every request without a slow verification step.
package service

// SecretService defines operations for client secret generation and validation.
type SecretService interface {
	// GenerateSecret creates a new random secret and returns both the plain
	// form and its Argon2id hash.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// HashSecret hashes a plain secret using Argon2id.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret verifies a plain secret against its stored hash.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenService defines operations for bearer token generation and hashing.
type TokenService interface {
	// GenerateToken creates a new random token and returns both the plain
	// form and its SHA-256 hash.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes a plain token using SHA-256 for lookup.
	HashToken(plainToken string) string
}
