package domain

import (
	"errors"
	"strings"
)

// Error kinds. Specific errors wrap one of these so callers can branch on the
// kind with errors.Is while still surfacing the specific message.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrCapacity   = errors.New("capacity")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrNoParcels     = kindError{ErrValidation, "no parcels to compute"}
	ErrInvalidTariff = kindError{ErrValidation, "tariff rates out of bounds"}

	ErrAgencyNotFound     = kindError{ErrNotFound, "agency not found"}
	ErrSimulationNotFound = kindError{ErrNotFound, "simulation not found"}
	ErrTransportNotFound  = kindError{ErrNotFound, "transport not found"}
	ErrTariffNotFound     = kindError{ErrNotFound, "no tariff configured"}
	ErrUserNotFound       = kindError{ErrNotFound, "user not found"}

	ErrNoSuitableTransport = kindError{ErrCapacity, "no transport available for this shipment"}
	ErrCapacityExceeded    = kindError{ErrCapacity, "capacity exceeded"}

	ErrSimulationNotDraft     = kindError{ErrConflict, "simulation is no longer a draft"}
	ErrConfirmationInProgress = kindError{ErrConflict, "confirmation already in progress"}
	ErrNotConfirmed           = kindError{ErrConflict, "simulation must be confirmed first"}
	ErrTransportAssigned      = kindError{ErrConflict, "simulation already has a transport"}
	ErrTrackingNumberTaken    = kindError{ErrConflict, "tracking number already issued"}
	ErrUserExists             = kindError{ErrConflict, "user already exists"}

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// kindError is a comparable sentinel carrying its kind.
type kindError struct {
	kind error
	msg  string
}

func (e kindError) Error() string { return e.msg }
func (e kindError) Unwrap() error { return e.kind }

// ValidationError lists every rule a caller input violated.
type ValidationError struct {
	Violations []string
}

// NewValidationError builds a ValidationError from one or more violations.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
