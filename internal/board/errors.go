package board

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFEN reports a FEN string that cannot describe a position.
	ErrMalformedFEN = errors.New("malformed FEN")

	// ErrIllegalMove reports move text that is unparsable or not legal in
	// the current position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvariantViolation marks an internal consistency fault.
	ErrInvariantViolation = errors.New("invariant violation")
)

// MalformedInputError describes rejected external input. The position it was
// applied to, if any, is left untouched.
type MalformedInputError struct {
	Input  string // the offending text
	Field  string // which part of the input, e.g. "castling"
	Reason string
	Err    error // ErrMalformedFEN or ErrIllegalMove
}

func (e *MalformedInputError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return fmt.Sprintf("%s (%q)", msg, e.Input)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func fenError(input, field, reason string) error {
	return &MalformedInputError{Input: input, Field: field, Reason: reason, Err: ErrMalformedFEN}
}

// InvariantViolation is raised with panic when board state can no longer be
// trusted. The search worker converts it into an aborted search.
type InvariantViolation struct {
	What string
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.What }
func (e *InvariantViolation) Unwrap() error { return ErrInvariantViolation }

func violation(format string, args ...any) {
	panic(&InvariantViolation{What: fmt.Sprintf(format, args...)})
}
