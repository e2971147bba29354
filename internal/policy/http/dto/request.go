// Package dto contains request and response payloads for the policy HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
	customValidation "github.com/allisson/controlplane/internal/validation"
)

// PolicyRequest is the payload for creating or updating a policy. Rule
// structure is validated by the domain; the DTO only checks the envelope.
type PolicyRequest struct {
	Name  string              `json:"name" binding:"required"`
	Rules []policyDomain.Rule `json:"rules" binding:"required"`
}

// Validate validates the policy request.
func (r PolicyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, customValidation.Key),
		validation.Field(&r.Rules, validation.Required),
	)
}

// EvaluateRequest is the payload for a policy evaluation. Version zero pins
// the current version.
type EvaluateRequest struct {
	Version    uint              `json:"version"`
	Attributes map[string]string `json:"attributes"`
}
