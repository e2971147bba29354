// Package dto contains request and response payloads for the vault HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"
)

// CreateSecretRequest is the payload for storing a new secret version.
// The value travels base64-encoded in JSON.
type CreateSecretRequest struct {
	Value []byte `json:"value" binding:"required"`
}

// Validate validates the create secret request.
func (r CreateSecretRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Value, validation.Required, validation.Length(1, 0)),
	)
}

// RotateSecretRequest is the payload for rotating a secret. An immediate
// rotation revokes the previous version right away instead of deprecating it
// for the grace window.
type RotateSecretRequest struct {
	Immediate bool `json:"immediate"`
}

// SetRotationPolicyRequest is the payload for configuring automatic rotation.
type SetRotationPolicyRequest struct {
	IntervalSeconds    int64 `json:"interval_seconds" binding:"required"`
	GracePeriodSeconds int64 `json:"grace_period_seconds"`
}

// Validate validates the rotation policy request.
func (r SetRotationPolicyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IntervalSeconds, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.GracePeriodSeconds, validation.Min(int64(0))),
	)
}
