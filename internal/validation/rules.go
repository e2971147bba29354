// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/controlplane/internal/errors"
)

var (
	// keyRegex matches config keys and secret names: dot/dash/slash separated segments.
	keyRegex = regexp.MustCompile(`^[a-zA-Z0-9]+([._\-/][a-zA-Z0-9]+)*$`)

	// environmentRegex matches environment names like "global", "prod", "staging-eu".
	environmentRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Key validates that a string is a well-formed config key or secret name.
var Key = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_key_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if len(s) > 255 {
		return validation.NewError("validation_key_length", "must be at most 255 characters")
	}
	if !keyRegex.MatchString(s) {
		return validation.NewError(
			"validation_key_format",
			"must contain only alphanumeric segments separated by '.', '_', '-' or '/'",
		)
	}
	return nil
})

// Environment validates that a string is a well-formed environment name.
var Environment = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_environment_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if len(s) > 64 {
		return validation.NewError("validation_environment_length", "must be at most 64 characters")
	}
	if !environmentRegex.MatchString(s) {
		return validation.NewError(
			"validation_environment_format",
			"must contain only lowercase alphanumeric segments separated by '-'",
		)
	}
	return nil
})

// OneOf returns a rule that validates the value is one of the allowed strings.
func OneOf(allowed ...string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_one_of_type", "must be a string")
		}
		if s == "" {
			return nil // Let Required handle empty strings
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return validation.NewError("validation_one_of", "must be one of the supported values")
	})
}

// PositiveSeconds validates that an integer duration field is strictly positive.
var PositiveSeconds = validation.By(func(value interface{}) error {
	switch v := value.(type) {
	case int:
		if v <= 0 {
			return validation.NewError("validation_positive_seconds", "must be a positive number of seconds")
		}
	case int64:
		if v <= 0 {
			return validation.NewError("validation_positive_seconds", "must be a positive number of seconds")
		}
	default:
		return validation.NewError("validation_positive_seconds_type", "must be an integer")
	}
	return nil
})
