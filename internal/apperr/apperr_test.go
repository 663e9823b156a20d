package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    *Error
		code   string
		status int
	}{
		{InvalidCredentials(), CodeInvalidCredentials, http.StatusUnauthorized},
		{AccountLocked(), CodeAccountLocked, http.StatusUnauthorized},
		{AccountDisabled(), CodeAccountDisabled, http.StatusForbidden},
		{TokenInvalid(), CodeTokenInvalid, http.StatusUnauthorized},
		{KidsDataRequired(), CodeKidsDataRequired, http.StatusPreconditionRequired},
		{Forbidden(), CodeInsufficientPermissions, http.StatusForbidden},
		{Validation("bad", nil), CodeValidation, http.StatusBadRequest},
		{NotFound("Session"), CodeResourceNotFound, http.StatusNotFound},
		{AlreadyExists("exists"), CodeResourceAlreadyExists, http.StatusConflict},
		{SessionOverlap(), CodeSessionOverlap, http.StatusConflict},
		{SessionCannotCancel(), CodeSessionCannotCancel, http.StatusBadRequest},
		{SessionInvalidState("nope"), CodeSessionInvalidState, http.StatusBadRequest},
		{Internal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.Status)
		assert.NotEmpty(t, tc.err.Message)
	}
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	assert.ErrorIs(t, SessionOverlap(), SessionOverlap())
	assert.NotErrorIs(t, SessionOverlap(), SessionCannotCancel())

	// matching survives wrapping
	wrapped := fmt.Errorf("booking failed: %w", SessionOverlap())
	assert.ErrorIs(t, wrapped, SessionOverlap())
}

func TestAsExtractsFromChain(t *testing.T) {
	cause := errors.New("db gone")
	wrapped := fmt.Errorf("lookup: %w", Internal(cause))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, e.Code)
	assert.ErrorIs(t, e, Internal(nil))
	assert.Equal(t, cause, errors.Unwrap(e))

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "SESS_OVERLAP: Session time overlaps with existing session", SessionOverlap().Error())

	withCause := Internal(errors.New("boom"))
	assert.Contains(t, withCause.Error(), "INTERNAL_SERVER_ERROR")
	assert.Contains(t, withCause.Error(), "boom")
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Session not found", NotFound("Session").Message)
}
