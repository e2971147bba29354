// Package domain defines the core domain models for managed secrets.
// Secrets use an immutable versioning system with envelope encryption: every
// rotation creates a new row with an incremented version, and old versions move
// through a deprecated grace window before being revoked.
package domain

import (
	"fmt"
)

// SecretStatus is the lifecycle state of a single secret version.
type SecretStatus string

const (
	// StatusActive marks the version currently served by default reads.
	// At most one version per secret name is active.
	StatusActive SecretStatus = "active"

	// StatusDeprecated marks a version inside its rotation grace window.
	// Deprecated versions can still be read by explicit version so consumers
	// that cached the old credential keep working until the window closes.
	StatusDeprecated SecretStatus = "deprecated"

	// StatusRevoked marks a version that can no longer be read.
	StatusRevoked SecretStatus = "revoked"
)

// ParseSecretStatus converts a string into a SecretStatus.
func ParseSecretStatus(s string) (SecretStatus, error) {
	switch SecretStatus(s) {
	case StatusActive, StatusDeprecated, StatusRevoked:
		return SecretStatus(s), nil
	default:
		return "", fmt.Errorf("unknown secret status: %q", s)
	}
}

// AccessAction is the kind of operation recorded in the secret access log.
type AccessAction string

const (
	ActionCreate          AccessAction = "create"
	ActionRead            AccessAction = "read"
	ActionRotate          AccessAction = "rotate"
	ActionEmergencyRotate AccessAction = "emergency_rotate"
	ActionRevoke          AccessAction = "revoke"
)
