package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
	ErrUpstream          = errors.New("upstream failure")
	ErrSelfFollow        = errors.New("cannot follow yourself")
	ErrAlreadyFollowing  = errors.New("already following")
	ErrConflict          = errors.New("concurrent modification")
)

// Code is the machine-readable error code exposed across the API boundary.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUpstream          Code = "UPSTREAM_FAILURE"
	CodeSelfFollow        Code = "SELF_FOLLOW"
	CodeAlreadyFollowing  Code = "ALREADY_FOLLOWING"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// order matters: the more specific social errors are checked before the generic ones
var errorCodes = []struct {
	err  error
	code Code
}{
	{ErrSelfFollow, CodeSelfFollow},
	{ErrAlreadyFollowing, CodeAlreadyFollowing},
	{ErrInvalidTransition, CodeInvalidTransition},
	{ErrNotFound, CodeNotFound},
	{ErrForbidden, CodeForbidden},
	{ErrInvalidState, CodeInvalidState},
	{ErrValidation, CodeValidation},
	{ErrConflict, CodeConflict},
	{ErrUpstream, CodeUpstream},
}

// ErrorCode classifies err against the taxonomy, CodeInternal if nothing matches.
func ErrorCode(err error) Code {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// ConstraintError is a violated database constraint. Its message is only the
// wrapped domain error; Constraint is kept for logs.
type ConstraintError struct {
	Err        error
	Constraint string
}

func (e *ConstraintError) Error() string { return e.Err.Error() }

func (e *ConstraintError) Unwrap() error { return e.Err }
