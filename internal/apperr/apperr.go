// Package apperr defines the typed domain errors shared by services and
// handlers.  Every error carries a stable machine-readable code, a human
// message and the HTTP status it maps to at the boundary.  Handlers never
// invent ad-hoc error bodies; they pass these values to httpx.Fail which
// renders the standard error envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced to API clients.  The set mirrors the error
// taxonomy of the platform; codes are contractual and must not be renamed.
const (
	CodeInvalidCredentials      = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked           = "AUTH_ACCOUNT_LOCKED"
	CodeAccountDisabled         = "AUTH_ACCOUNT_DISABLED"
	CodeTokenInvalid            = "AUTH_TOKEN_INVALID"
	CodeKidsDataRequired        = "AUTH_KIDS_DATA_REQUIRED"
	CodeInsufficientPermissions = "AUTH_INSUFFICIENT_PERMISSIONS"
	CodeValidation              = "VALIDATION_ERROR"
	CodeResourceNotFound        = "RESOURCE_NOT_FOUND"
	CodeResourceAlreadyExists   = "RESOURCE_ALREADY_EXISTS"
	CodeResourceConflict        = "RESOURCE_CONFLICT"
	CodeSessionOverlap          = "SESS_OVERLAP"
	CodeSessionCannotCancel     = "SESS_CANNOT_CANCEL"
	CodeSessionInvalidState     = "SESS_INVALID_STATE"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeInternal                = "INTERNAL_SERVER_ERROR"
)

// Error is the single error type crossing the service/handler boundary.
type Error struct {
	Code    string // stable code from the constants above
	Message string // human-readable message, safe to expose
	Status  int    // HTTP status the boundary maps this error to
	Details any    // optional structured details (validation fields etc.)
	Err     error  // wrapped cause, logged but never serialized
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values by code, so callers can compare
// against the constructor results without caring about message text.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// As extracts an *Error from an arbitrary error chain.  The bool reports
// whether the chain contained one.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func newErr(code, msg string, status int) *Error {
	return &Error{Code: code, Message: msg, Status: status}
}

// Constructors for the domain error taxonomy.

func InvalidCredentials() *Error {
	return newErr(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
}

func AccountLocked() *Error {
	return newErr(CodeAccountLocked, "Account is locked due to multiple failed login attempts", http.StatusUnauthorized)
}

func AccountDisabled() *Error {
	return newErr(CodeAccountDisabled, "Account is not active", http.StatusForbidden)
}

func TokenInvalid() *Error {
	return newErr(CodeTokenInvalid, "Invalid or expired refresh token", http.StatusUnauthorized)
}

func KidsDataRequired() *Error {
	return newErr(CodeKidsDataRequired, "You must complete kids data before logging in", http.StatusPreconditionRequired)
}

func Forbidden() *Error {
	return newErr(CodeInsufficientPermissions, "Insufficient permissions for this action", http.StatusForbidden)
}

func Validation(msg string, details any) *Error {
	e := newErr(CodeValidation, msg, http.StatusBadRequest)
	e.Details = details
	return e
}

func NotFound(what string) *Error {
	return newErr(CodeResourceNotFound, what+" not found", http.StatusNotFound)
}

func AlreadyExists(msg string) *Error {
	return newErr(CodeResourceAlreadyExists, msg, http.StatusConflict)
}

func SessionOverlap() *Error {
	return newErr(CodeSessionOverlap, "Session time overlaps with existing session", http.StatusConflict)
}

func SessionCannotCancel() *Error {
	return newErr(CodeSessionCannotCancel, "Cannot cancel a completed session", http.StatusBadRequest)
}

func SessionInvalidState(msg string) *Error {
	return newErr(CodeSessionInvalidState, msg, http.StatusBadRequest)
}

// Internal wraps an unanticipated fault.  The cause is retained for logging
// at the boundary while the client sees only the generic code.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "Internal server error", Status: http.StatusInternalServerError, Err: err}
}
