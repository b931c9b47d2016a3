// Package services provides the business layer between the HTTP surface and
// the engine: policy administration and audit read-back.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	ErrPolicyNil             = errors.New("policy cannot be nil")
	ErrInvalidPolicyDocument = errors.New("invalid policy document")
	ErrEmptyTenantID         = errors.New("tenant ID cannot be empty")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPolicyNil) ||
		errors.Is(err, ErrInvalidPolicyDocument) ||
		errors.Is(err, ErrEmptyTenantID)
}
