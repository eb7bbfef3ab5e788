package errors

import (
	"errors"
	"fmt"
)

var (
	// Catalog errors
	ErrEventUnavailable = errors.New("event unavailable")
	ErrInvalidEventData = errors.New("invalid event data")

	// Purchase errors
	ErrSoldOut             = errors.New("no seats available")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrAmountMismatch      = errors.New("payment amount does not match ticket price")
	ErrLedgerInconsistency = errors.New("sold tickets exceed total seats")

	// Ticket errors
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Gateway errors
	ErrGatewayDeclined = errors.New("payment declined by gateway")
	ErrGatewayTimeout  = errors.New("gateway request timeout")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
