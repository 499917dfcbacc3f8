// apperr/apperr.go - Application error taxonomy
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error kind independent of its message.
type Code string

const (
	CodeInternal         Code = "INTERNAL"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeAlreadyInTeam    Code = "ALREADY_IN_TEAM"
	CodeTeamFull         Code = "TEAM_FULL"
	CodeDuplicateRequest Code = "DUPLICATE_REQUEST"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"

	// Authentication collaborator taxonomy
	CodeEmailInUse    Code = "EMAIL_IN_USE"
	CodeInvalidEmail  Code = "INVALID_EMAIL"
	CodeWeakPassword  Code = "WEAK_PASSWORD"
	CodeWrongPassword Code = "WRONG_PASSWORD"
	CodeRateLimited   Code = "RATE_LIMITED"
)

var (
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrProfileNotFound    = New(CodeNotFound, "profile not found")
	ErrTeamNotFound       = New(CodeNotFound, "team not found")
	ErrInvitationNotFound = New(CodeNotFound, "invitation not found")
	ErrInvitationResolved = New(CodeNotFound, "invitation is no longer pending")
	ErrAlreadyInTeam      = New(CodeAlreadyInTeam, "user is already in a team")
	ErrTeamFull           = New(CodeTeamFull, "team is full")
	ErrDuplicateRequest   = New(CodeDuplicateRequest, "invitation already sent")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrStoreUnavailable   = New(CodeStoreUnavailable, "store unavailable")
)

// Error is an error carrying a Code.
type Error struct {
	code    Code
	message string
	err     error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. An existing code on err is kept
// when code is empty.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	if code == "" {
		code = CodeOf(err)
	}
	return &Error{code: code, message: message, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *Error) Message() string { return e.message }

func (e *Error) Code() Code { return e.code }

func (e *Error) Unwrap() error { return e.err }

// Is reports a match on code, so errors.Is(err, ErrTeamFull) holds for any
// TEAM_FULL error regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

// MessageOf returns a message safe to show to a client.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.code != CodeInternal {
		return e.message
	}
	return "internal error"
}

// HTTPStatus maps a code to an HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument, CodeInvalidEmail, CodeWeakPassword:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeWrongPassword:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeAlreadyInTeam, CodeTeamFull, CodeDuplicateRequest, CodeEmailInUse:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
