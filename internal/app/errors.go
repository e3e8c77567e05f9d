package app

import (
	"errors"

	"github.com/khrees2412/mockly/internal/session"
)

// Sentinel errors for common application errors
var (
	ErrValidation   = session.ErrValidation
	ErrState        = session.ErrState
	ErrParse        = session.ErrParse
	ErrNotFound     = session.ErrNotFound
	ErrSessionReset = session.ErrSessionReset
)

// Error kinds reported to clients
const (
	KindValidation = "validation"
	KindState      = "state"
	KindParse      = "parse"
	KindNotFound   = "not_found"
	KindReset      = "session_reset"
	KindInternal   = "internal"
)

// Kind classifies err by the sentinel it wraps
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrState):
		return KindState
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrSessionReset):
		return KindReset
	default:
		return KindInternal
	}
}
