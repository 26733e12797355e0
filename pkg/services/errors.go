// Package services implements the application operations exposed over the
// API: automation management and the execution query surface.
package services

import (
	"errors"

	"github.com/aferraz/driveline/pkg/persistence"
)

// Business logic errors, mapped to 4xx responses by the web layer.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyAccountID = errors.New("account ID cannot be empty")
	ErrNameRequired   = errors.New("automation name is required")
	ErrInvalidGraph   = errors.New("invalid graph")
	ErrInvalidStatus  = errors.New("invalid execution status")
	ErrAutomationNil  = errors.New("automation cannot be nil")

	// Not-found errors re-exported from the persistence layer.
	ErrAutomationNotFound = persistence.ErrAutomationNotFound
	ErrAccountNotFound    = persistence.ErrAccountNotFound
)

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyAccountID) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrInvalidGraph) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrAutomationNil)
}
