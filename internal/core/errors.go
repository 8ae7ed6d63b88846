package core

import "errors"

// Error kinds understood by the request boundary.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

var (
	ErrInvalidAmount       = &ValidationError{Msg: "invalid amount"}
	ErrEmptyName           = &ValidationError{Msg: "empty name"}
	ErrEmptyDescription    = &ValidationError{Msg: "empty description"}
	ErrFixedCostIDsMissing = &ValidationError{Msg: "fixed cost ids are required"}
	ErrZeroTotal           = &ValidationError{Msg: "total amount plus extra income must be greater than zero"}
	ErrInvalidDate         = &ValidationError{Msg: "invalid date"}
	ErrYearOutOfRange      = &ValidationError{Msg: "year out of range"}
	ErrInvalidKind         = &ValidationError{Msg: "invalid kind"}
)
