package session

import (
	"errors"
	"fmt"

	"github.com/khrees2412/mockly/pkg/models"
)

// Sentinel errors, matched with errors.Is
var (
	ErrValidation   = errors.New("validation failed")
	ErrState        = errors.New("invalid session state")
	ErrSessionReset = errors.New("session was reset")
	ErrNotFound     = errors.New("not found")
	ErrParse        = errors.New("failed to parse document")
)

// ValidationError reports input the session refuses to accept. The session is left unmodified.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StateError reports an operation that is not legal in the current stage. The session is left unmodified.
type StateError struct {
	Op     string
	Stage  models.Stage
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in stage %q: %s", e.Op, e.Stage, e.Reason)
}

func (e *StateError) Unwrap() error { return ErrState }

func stateErr(op string, stage models.Stage, reason string) error {
	return &StateError{Op: op, Stage: stage, Reason: reason}
}
