package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyStates is returned when a description declares no states.
var ErrEmptyStates = errors.New("states cannot be empty")

// ErrEmptyAlphabet is returned when a description declares no input symbols.
var ErrEmptyAlphabet = errors.New("input symbols cannot be empty")

// ErrMissingDistinguishedState is matched by every *MissingStateError.
var ErrMissingDistinguishedState = errors.New("initial, accept, and reject states must be specified")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrMachineNotFound is returned by description loaders for unknown IDs.
var ErrMachineNotFound = errors.New("machine not found")

// ErrUnknownState is returned when restoring a configuration whose state the
// definition does not know.
var ErrUnknownState = errors.New("unknown state")

// ErrStepLimit is returned by bounded runs that stop before the machine halts.
var ErrStepLimit = errors.New("step limit reached before the machine halted")

// MalformedTransitionError reports a transition line that does not have exactly five fields.
type MalformedTransitionError struct {
	Line string
}

func (e *MalformedTransitionError) Error() string {
	return fmt.Sprintf("invalid transition format: %s", e.Line)
}

// InvalidDirectionError reports a direction token other than L or R.
// It is only produced when strict directions are enabled.
type InvalidDirectionError struct {
	Line      string
	Direction string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid direction %q in transition: %s", e.Direction, e.Line)
}

// MissingStateError reports an empty initial, accept or reject field.
type MissingStateError struct {
	Field string
}

func (e *MissingStateError) Error() string {
	return fmt.Sprintf("%s (%s state is empty)", ErrMissingDistinguishedState, e.Field)
}

func (e *MissingStateError) Is(target error) bool {
	return target == ErrMissingDistinguishedState
}

// ErrorKind classifies a parse error for wire formats (HTTP, MCP, CLI).
func ErrorKind(err error) string {
	var malformed *MalformedTransitionError
	var direction *InvalidDirectionError
	switch {
	case errors.Is(err, ErrEmptyStates):
		return "empty_states"
	case errors.Is(err, ErrEmptyAlphabet):
		return "empty_alphabet"
	case errors.As(err, &malformed):
		return "malformed_transition"
	case errors.As(err, &direction):
		return "invalid_direction"
	case errors.Is(err, ErrMissingDistinguishedState):
		return "missing_distinguished_state"
	}
	return ""
}

// ErrorLine returns the offending transition line carried by err, if any.
func ErrorLine(err error) string {
	var malformed *MalformedTransitionError
	if errors.As(err, &malformed) {
		return malformed.Line
	}
	var direction *InvalidDirectionError
	if errors.As(err, &direction) {
		return direction.Line
	}
	return ""
}
