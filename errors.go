package ponder

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed field on a turn request.
// The turn is rejected before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnknownCommandError reports a session command the controller does not know.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q: expected save, load, or getState", e.Command)
}

// GeneratorError reports a failure of the external generator collaborator.
// The controller absorbs it into a degraded thought body; callers invoking a
// Generator directly receive it as-is.
type GeneratorError struct {
	Generator string
	Err       error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator %s: %v", e.Generator, e.Err)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}

// PersistenceError reports an IO failure while saving or loading a session file.
// The in-memory store is left unchanged.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FormatError reports malformed session content: a payload whose structure
// cannot be restored into a store. The in-memory store is left unchanged.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed session: %s", e.Reason)
}

// errorKind maps an error to the kind string used in error envelopes.
func errorKind(err error) string {
	var (
		ve *ValidationError
		ue *UnknownCommandError
		ge *GeneratorError
		pe *PersistenceError
		fe *FormatError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ue):
		return "unknown_command"
	case errors.As(err, &ge):
		return "generator"
	case errors.As(err, &pe):
		return "persistence"
	case errors.As(err, &fe):
		return "format"
	default:
		return "internal"
	}
}
