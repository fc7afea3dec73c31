// Package errs defines the typed errors returned by the data layer.
//
// Every failure that crosses a package boundary is an *Error carrying a
// stable machine-readable Code, so callers can branch with errors.Is
// against the sentinels below without parsing messages.
package errs
