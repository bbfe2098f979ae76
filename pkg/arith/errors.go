package arith

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every *ValidationError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// MsgZeroOperands is the message carried by the Add zero-operand guard.
// Existing callers match on this exact text.
const MsgZeroOperands = "Cannot divide by zero"

// ValidationError reports operands rejected by an operation.
type ValidationError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is reports whether target is ErrInvalidArgument.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewValidationError creates a ValidationError for op.
func NewValidationError(op, msg string) *ValidationError {
	return &ValidationError{Op: op, Message: msg}
}
