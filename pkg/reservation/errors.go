package reservation

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the reservation service.
var (
	ErrNotFound                = errors.New("not found")
	ErrReservationNotFound     = fmt.Errorf("%w: reservation", ErrNotFound)
	ErrWaitlistEntryNotFound   = fmt.Errorf("%w: waitlist entry", ErrNotFound)
	ErrNoUpcomingReservation   = fmt.Errorf("%w: no upcoming reservation", ErrNotFound)
	ErrManagerNotFound         = fmt.Errorf("%w: manager", ErrNotFound)
	ErrSlotTaken               = errors.New("slot already taken")
	ErrPastSlot                = errors.New("slot is in the past")
	ErrActiveReservationExists = errors.New("active reservation already exists")
	ErrReservationNotActive    = errors.New("reservation is no longer active")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrManagerExists           = errors.New("manager already exists")
	ErrInvalidCustomerName     = errors.New("invalid customer name")
	ErrInvalidPhoneNumber      = errors.New("invalid phone number")
	ErrInvalidPartySize        = errors.New("invalid party size")
	ErrMissingDate             = errors.New("missing reservation date")
	ErrInvalidDate             = errors.New("invalid reservation date")
	ErrMissingTime             = errors.New("missing reservation time")
	ErrInvalidSlotTime         = errors.New("invalid slot time")
	ErrPastDateTime            = errors.New("date and time not in the future")
	ErrInvalidReservationID    = errors.New("invalid reservation id")
	ErrInvalidWaitlistPosition = errors.New("invalid waitlist position")
	ErrInvalidLoginID          = errors.New("invalid login id")
	ErrInvalidPassword         = errors.New("invalid password")
	ErrInvalidServiceConfig    = errors.New("invalid service config")
)

const storageOperation = "store"

// ValidationError reports which input field failed and a message fit for display.
type ValidationError struct {
	field  string
	reason string
	err    error
}

func newValidationError(field string, reason string, err error) error {
	return ValidationError{field: field, reason: reason, err: err}
}

// Error returns the formatted error message.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", validationError.field, validationError.reason)
}

// Unwrap returns the underlying sentinel.
func (validationError ValidationError) Unwrap() error {
	return validationError.err
}

// Field names the offending input.
func (validationError ValidationError) Field() string {
	return validationError.field
}

// Reason returns the user-facing message.
func (validationError ValidationError) Reason() string {
	return validationError.reason
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}

// WrapStorageError tags a persistence failure so callers can tell it apart from domain outcomes.
func WrapStorageError(subject string, code string, err error) error {
	return WrapError(storageOperation, subject, code, err)
}

// IsStorageError reports whether err is a persistence failure rather than a domain outcome.
// Stores also wrap outcomes such as ErrSlotTaken; those are not storage failures.
func IsStorageError(err error) bool {
	var operationError OperationError
	if !errors.As(err, &operationError) || operationError.operation != storageOperation {
		return false
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrSlotTaken) && !errors.Is(err, ErrManagerExists)
}
