// Package apperr defines the error categories surfaced to API callers.
// Services wrap these sentinels with fmt.Errorf("%w: ...") so handlers can
// pick a status code with errors.Is while keeping the human-readable cause.
package apperr

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
