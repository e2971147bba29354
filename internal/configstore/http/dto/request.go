// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
)

// PutConfigRequest contains the parameters for writing a config entry.
// The key is extracted from the URL parameter and the environment from the
// query string, not the request body. Value is base64-encoded in JSON.
type PutConfigRequest struct {
	Value []byte `json:"value" binding:"required"`
}

// Validate checks if the put config request is valid.
func (r *PutConfigRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.Required,
			validation.Length(1, 0), // At least 1 byte
		),
	)
}
