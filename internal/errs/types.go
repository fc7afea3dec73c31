package errs

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "email", "error": "must be a valid email address" }
type FieldError struct {
	// Field is the payload key the error relates to (e.g. "email").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// Code is a string-based enum identifying the category of a failure.
type Code string

const (
	// CodeNotFound: the operation targets an id absent from the store.
	CodeNotFound Code = "NOT_FOUND"

	// CodeReferenceNotFound: a foreign key names a nonexistent target.
	CodeReferenceNotFound Code = "REFERENCE_NOT_FOUND"

	// CodeUniquenessViolation: a unique field collides with an existing record.
	CodeUniquenessViolation Code = "UNIQUENESS_VIOLATION"

	// CodeValidation: malformed or missing field in a payload.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeStorageFailure: transport or transaction failure from the backing store.
	CodeStorageFailure Code = "STORAGE_FAILURE"

	// CodeImmutable: the entity kind does not support update or delete.
	CodeImmutable Code = "IMMUTABLE"

	// CodeHasDependents: delete refused because other records still reference the target.
	CodeHasDependents Code = "HAS_DEPENDENTS"
)

// Error is the single error type surfaced by the model, repository and
// service layers.
//
// Fields:
//   - Code: machine-friendly category.
//   - Message: human-friendly message.
//   - Kind: entity kind the failure relates to (e.g. "City"), if any.
//   - Field: offending field, if any (comma-joined for composite keys).
//   - Value: the attempted value of Field.
//   - Errors: per-field validation errors.
type Error struct {
	Code    Code         `json:"code"`
	Message string       `json:"message"`
	Kind    string       `json:"kind,omitempty"`
	Field   string       `json:"field,omitempty"`
	Value   any          `json:"value,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// Error makes *Error satisfy the built-in `error` interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause (driver error, decode error) to
// errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
//
// Only the Code is compared, so errors.Is(err, errs.ErrNotFound) holds for
// any not-found error regardless of kind or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// WithMessage returns a *copy* of this Error with Message replaced.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		Code:    e.Code,
		Message: message,
		Kind:    e.Kind,
		Field:   e.Field,
		Value:   e.Value,
		Errors:  e.Errors,
		cause:   e.cause,
	}
}

// WithKind returns a copy of this Error tagged with the given entity kind.
func (e *Error) WithKind(kind string) *Error {
	c := e.WithMessage(e.Message)
	c.Kind = kind
	return c
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrReferenceNotFound   = &Error{Code: CodeReferenceNotFound}
	ErrUniquenessViolation = &Error{Code: CodeUniquenessViolation}
	ErrValidation          = &Error{Code: CodeValidation}
	ErrStorageFailure      = &Error{Code: CodeStorageFailure}
	ErrImmutable           = &Error{Code: CodeImmutable}
	ErrHasDependents       = &Error{Code: CodeHasDependents}
)
