package service

import (
	"errors"
	"fmt"

	"vendor-service/internal/codegen"
	"vendor-service/internal/repository"
)

var (
	// ErrNotFound is returned when a vendor or purchase order does not exist
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed input fields
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyAcknowledged is returned when acknowledging an order that is already complete
	ErrAlreadyAcknowledged = errors.New("this purchase order is already acknowledged")
	// ErrConflict is returned when a write collides with existing data
	ErrConflict = errors.New("conflict")
	// ErrCodeSpaceExhausted is returned when no free vendor code or PO number could be drawn
	ErrCodeSpaceExhausted = fmt.Errorf("%w: no free code available", ErrConflict)
	// ErrUnauthorized is returned for bad credentials or tokens
	ErrUnauthorized = errors.New("invalid credentials")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translate maps storage and allocation errors onto the service taxonomy
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	case errors.Is(err, codegen.ErrCodeSpaceExhausted):
		return fmt.Errorf("%s: %w", what, ErrCodeSpaceExhausted)
	}
	return err
}
