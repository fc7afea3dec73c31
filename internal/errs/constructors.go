package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// NewNotFoundError reports that no record of kind with the given id exists.
func NewNotFoundError(kind, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", kind, id),
		Kind:    kind,
		Field:   "id",
		Value:   id,
	}
}

// NewReferenceNotFoundError reports that field on a kind record names a
// target record that does not exist.
//
// Example message:
//
//	City.country_code references a Country that does not exist: "ZZ"
func NewReferenceNotFoundError(kind, field string, value any, target string) *Error {
	return &Error{
		Code:    CodeReferenceNotFound,
		Message: fmt.Sprintf("%s.%s references a %s that does not exist: %q", kind, field, target, fmt.Sprint(value)),
		Kind:    kind,
		Field:   field,
		Value:   value,
	}
}

// NewUniquenessViolationError reports a collision on a unique field.
func NewUniquenessViolationError(kind, field string, value any) *Error {
	return &Error{
		Code:    CodeUniquenessViolation,
		Message: fmt.Sprintf("a %s with this %s already exists: %q", kind, field, fmt.Sprint(value)),
		Kind:    kind,
		Field:   field,
		Value:   value,
	}
}

// NewValidationError creates a validation failure with optional field errors.
func NewValidationError(message string, fieldErrors []FieldError) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: message,
		Errors:  fieldErrors,
	}
}

// NewFieldValidationError is a shorthand for a single offending field.
func NewFieldValidationError(field, message string) *Error {
	return NewValidationError("Validation failed", []FieldError{{Field: field, Error: message}})
}

// NewImmutableError reports that kind records cannot be changed once created.
func NewImmutableError(kind, operation string) *Error {
	return &Error{
		Code:    CodeImmutable,
		Message: fmt.Sprintf("%s records are read-only after creation; %s is not supported", kind, operation),
		Kind:    kind,
	}
}

// NewHasDependentsError reports that a record cannot be deleted because
// dependentKind records still reference it through field.
func NewHasDependentsError(kind, id, dependentKind, field string) *Error {
	return &Error{
		Code:    CodeHasDependents,
		Message: fmt.Sprintf("%s %s is still referenced by %s.%s", kind, id, dependentKind, field),
		Kind:    kind,
		Field:   field,
		Value:   id,
	}
}

// NewStorageFailure wraps an error raised by the backing store.
//
// The cause keeps a stack trace (pkg/errors) so it shows up in structured
// logs once the error reaches a layer that logs.
func NewStorageFailure(err error) *Error {
	var e *Error
	if errors.As(err, &e) && e.Code == CodeStorageFailure {
		return e
	}

	return &Error{
		Code:    CodeStorageFailure,
		Message: "storage failure: " + err.Error(),
		cause:   pkgerrors.WithStack(err),
	}
}

// Wrap attaches cause to e so errors.Is/As can reach the original error.
func Wrap(e *Error, cause error) *Error {
	c := e.WithMessage(e.Message)
	c.cause = cause
	return c
}

// CodeOf returns the Code carried by err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
