package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrDefinition reports an invalid schema. Raised by Define only.
	ErrDefinition = errors.New("invalid definition")

	// ErrMissingValue reports a field read without cache, default or computation.
	ErrMissingValue = errors.New("missing value")

	// ErrTypeMismatch reports a strict-typed write of the wrong runtime type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidOperation reports a write to a computed field or a double wrap.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrRecursion reports a cyclic composition detected through bounded depth.
	ErrRecursion = errors.New("maximum composition depth exceeded")

	// ErrUnknownField reports a name that is not a declared field.
	ErrUnknownField = errors.New("unknown field")

	// ErrNotRegistered reports a type that cannot be rebuilt from a description.
	ErrNotRegistered = errors.New("type not registered")
)

// FieldError adds the type and field to one of the sentinel errors above.
type FieldError struct {
	Type  string
	Field string
	Msg   string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Err, e.Msg)
	}
	return fmt.Sprintf("%s.%s: %s: %s", e.Type, e.Field, e.Err, e.Msg)
}

// Unwrap returns the sentinel error.
func (e *FieldError) Unwrap() error { return e.Err }

func fieldError(typ, field string, err error, format string, args ...any) error {
	return &FieldError{Type: typ, Field: field, Err: err, Msg: fmt.Sprintf(format, args...)}
}
