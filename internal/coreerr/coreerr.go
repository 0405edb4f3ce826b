// internal/coreerr/coreerr.go
// Error taxonomy shared by every core component

package coreerr

import (
	"errors"
	"fmt"
)

// Code classifies a core error into one of the five kinds the caller-facing
// API distinguishes.
type Code string

const (
	CodeInputInvalid         Code = "InputInvalid"
	CodeAuthorizationFailure Code = "AuthorizationFailure"
	CodeStateViolation       Code = "StateViolation"
	CodeMatchmakingFailure   Code = "MatchmakingFailure"
	CodePersistenceFailure   Code = "PersistenceFailure"
)

// MatchmakingSubtype distinguishes why the generator exhausted its budget.
type MatchmakingSubtype string

const (
	RatingInfeasible      MatchmakingSubtype = "RatingInfeasible"
	ConstraintsInfeasible MatchmakingSubtype = "ConstraintsInfeasible"
)

// Error is the core's structured error type. It wraps an optional cause and
// carries enough information for callers to errors.Is/errors.As against
// both the Code and, for matchmaking failures, the Subtype.
type Error struct {
	Code    Code
	Subtype MatchmakingSubtype
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Subtype != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s(%s): %s: %v", e.Code, e.Subtype, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s(%s): %s", e.Code, e.Subtype, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, coreerr.InputInvalid(...)) style comparisons by
// Code (and Subtype when the target sets one).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	if t.Subtype != "" && t.Subtype != e.Subtype {
		return false
	}
	return true
}

func newErr(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InputInvalid reports caller misuse: wrong participant count, unknown ids.
func InputInvalid(format string, args ...interface{}) *Error {
	return newErr(CodeInputInvalid, format, args...)
}

// NotFound is a conventional InputInvalid-shaped error for missing entities:
// it carries CodeInputInvalid, as there is no separate NotFound code.
func NotFound(format string, args ...interface{}) *Error {
	return newErr(CodeInputInvalid, format, args...)
}

// StateViolation reports an operation illegal for the entity's current
// status (e.g. complete from DRAFT, delete of COMPLETED).
func StateViolation(format string, args ...interface{}) *Error {
	return newErr(CodeStateViolation, format, args...)
}

// Conflict is a StateViolation-shaped error for concurrent-mutation
// rejections (e.g. a group lock already held).
func Conflict(format string, args ...interface{}) *Error {
	return newErr(CodeStateViolation, format, args...)
}

// Matchmaking reports the schedule generator exhausting its budget, tagged
// with the subtype that determines whether relaxation would have helped.
func Matchmaking(subtype MatchmakingSubtype, format string, args ...interface{}) *Error {
	e := newErr(CodeMatchmakingFailure, format, args...)
	e.Subtype = subtype
	return e
}

// Persistence wraps an error returned by the persistence port.
func Persistence(cause error, format string, args ...interface{}) *Error {
	e := newErr(CodePersistenceFailure, format, args...)
	e.Cause = cause
	return e
}

// IsCode reports whether err (or any error it wraps) carries the given code.
func IsCode(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
