// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation, such as a duplicate email.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates missing or malformed input. Wrapped messages follow
// the "validation: <message>" form so handlers can strip the prefix.
var ErrValidation = errors.New("validation")

// ErrUnauthorized indicates missing, invalid, or expired credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Validationf builds an ErrValidation with a client-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
