package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
)

func newCtx(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/test", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOKEnvelope(t *testing.T) {
	c, rec := newCtx(t)
	require.NoError(t, OK(c, http.StatusCreated, map[string]string{"name": "x"}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, map[string]any{"name": "x"}, body["data"])

	meta, ok := body["meta"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, meta["traceId"])
	assert.NotEmpty(t, meta["timestamp"])
	assert.NotContains(t, meta, "pagination")
}

func TestOKPagePagination(t *testing.T) {
	c, rec := newCtx(t)
	require.NoError(t, OKPage(c, http.StatusOK, []int{1, 2, 3}, 2, 10, 25))

	body := decode(t, rec)
	meta := body["meta"].(map[string]any)
	p, ok := meta["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), p["page"])
	assert.Equal(t, float64(10), p["limit"])
	assert.Equal(t, float64(25), p["total"])
	assert.Equal(t, float64(3), p["totalPages"])
}

func TestFailTypedError(t *testing.T) {
	c, rec := newCtx(t)
	require.NoError(t, Fail(c, apperr.SessionOverlap()))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["ok"])

	errInfo := body["error"].(map[string]any)
	assert.Equal(t, apperr.CodeSessionOverlap, errInfo["code"])
	assert.NotEmpty(t, errInfo["message"])
	assert.NotContains(t, body, "data")
}

func TestFailValidationDetails(t *testing.T) {
	c, rec := newCtx(t)
	require.NoError(t, Fail(c, apperr.Validation("Invalid kid data", map[string]string{"age": "must be between 1 and 17"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errInfo := decode(t, rec)["error"].(map[string]any)
	details := errInfo["details"].(map[string]any)
	assert.Equal(t, "must be between 1 and 17", details["age"])
}

func TestFailUntypedErrorIsOpaque(t *testing.T) {
	c, rec := newCtx(t)
	require.NoError(t, Fail(c, errors.New("dsn=root:secret@tcp...")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	errInfo := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, apperr.CodeInternal, errInfo["code"])
	// the cause must never reach the client
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestTraceIDStableWithinRequest(t *testing.T) {
	c, _ := newCtx(t)
	first := TraceID(c)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, TraceID(c))

	c2, _ := newCtx(t)
	assert.NotEqual(t, first, TraceID(c2))
}
