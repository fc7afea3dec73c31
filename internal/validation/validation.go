// Package validation contains the logic for validating
// entity fields and payloads.
//
// It uses the `validator` library to enforce rules (like
// required fields or email formats) defined in struct tags
// and extracts validation errors into errs.FieldError values
// keyed by the payload field name.
package validation
