package kp

import (
	"errors"
	"fmt"

	"github.com/litescript/ls-kp/internal/ephem"
)

var (
	// ErrInvalidInput marks a request rejected before any computation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderFailure marks an ephemeris lookup that failed for one body
	// or for the house frame.
	ErrProviderFailure = errors.New("ephemeris provider failure")
)

// InputError names the offending request field and the broken constraint.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ProviderError wraps the provider's own error for one body.
// Body is empty when the house frame failed.
type ProviderError struct {
	Body ephem.Body
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("houses: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Body, e.Err)
}

// Is reports ErrProviderFailure as well as anything the cause matches.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// InvariantError is the panic value raised when a result that should be
// impossible by construction is produced, such as a sign index of 12.
// It is a programming error and is never converted into a returned error.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("kp: invariant violated in %s: %s", e.Op, e.Detail)
}

func violate(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
