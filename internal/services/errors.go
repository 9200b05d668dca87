package services

import (
	"errors"
	"fmt"

	"movie-night-backend/internal/repository"
)

// Error kinds returned by the services. Handlers map them to status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnknown      = errors.New("unknown error")
)

// invalid marks err (usually a *validation.RequestValidationError) as a validation failure
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// classify maps a store error onto the service error kinds. The cause stays
// reachable through errors.Is / errors.As.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnknown, err)
	}
}
