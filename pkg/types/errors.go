package types

import "errors"

// Access errors.
var (
	ErrNotFound        = errors.New("task not found")
	ErrForbidden       = errors.New("this action is unauthorized")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Validation causes. They reach callers wrapped in a ValidationError that
// names the offending field.
var (
	ErrInvalidID         = errors.New("invalid task id")
	ErrStatementRequired = errors.New("the task statement is required")
	ErrStatementTooLong  = errors.New("the task statement cannot exceed 100 characters")
	ErrDateRequired      = errors.New("the date is required")
	ErrInvalidDate       = errors.New("the date is not a valid YYYY-MM-DD calendar date")
	ErrInvalidTaskIDs    = errors.New("task ids must be a non-empty list")
	ErrDuplicateTaskID   = errors.New("task ids must not repeat")
	ErrInvalidLimit      = errors.New("limit must be a positive integer")
	ErrInvalidFlag       = errors.New("the value must be true or false")
	ErrImmutableField    = errors.New("field cannot be changed")
	ErrInvalidOwner      = errors.New("owner must not be empty")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field string
	Err   error
}

// Invalid wraps err as a ValidationError on field.
func Invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
