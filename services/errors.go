package services

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the engines. Callers branch with errors.Is:
// validation errors are rejected before any persistence, state conflicts
// mean another actor already moved the row, authorization errors mean the
// actor is outside their scope.
var (
	ErrValidation        = errors.New("validation error")
	ErrStateConflict     = errors.New("state conflict")
	ErrUnauthorized      = errors.New("not allowed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ErrPaymentMethodDisabled rejects non-cash orders before pricing runs.
var ErrPaymentMethodDisabled = fmt.Errorf("%w: payment method disabled", ErrValidation)

// ErrCannotCancel is returned when a client cancels past the accepted stage.
var ErrCannotCancel = fmt.Errorf("%w: order can no longer be cancelled", ErrStateConflict)

// ErrValidationField builds a validation error naming the offending field,
// for request validation at the transport boundary.
func ErrValidationField(field string) error {
	return fmt.Errorf("%w: %s is missing or invalid", ErrValidation, field)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func stateConflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}
