package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
)

// Validation runs before any repository access, so these tests exercise the
// handlers with nil dependencies.

func postJSON(t *testing.T, path, body string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func failCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestCreateSessionRejectsMissingIDs(t *testing.T) {
	h := &SessionHandler{}
	rec := postJSON(t, "/v1/sessions", `{"startsAt":"2026-03-10T10:00:00Z","endsAt":"2026-03-10T11:00:00Z"}`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, failCode(t, rec))
}

func TestCreateSessionRejectsInvertedWindow(t *testing.T) {
	h := &SessionHandler{}
	rec := postJSON(t, "/v1/sessions",
		`{"clientId":1,"coachId":2,"startsAt":"2026-03-10T11:00:00Z","endsAt":"2026-03-10T10:00:00Z"}`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, failCode(t, rec))
}

func TestCreateSessionRejectsZeroLengthWindow(t *testing.T) {
	h := &SessionHandler{}
	rec := postJSON(t, "/v1/sessions",
		`{"clientId":1,"coachId":2,"startsAt":"2026-03-10T10:00:00Z","endsAt":"2026-03-10T10:00:00Z"}`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAvailabilityRequiresCoach(t *testing.T) {
	h := &SessionHandler{}
	rec := postJSON(t, "/v1/sessions/check-availability",
		`{"startsAt":"2026-03-10T10:00:00Z","endsAt":"2026-03-10T11:00:00Z"}`, h.CheckAvailability)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusRejectsCancelViaStatus(t *testing.T) {
	h := &SessionHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"canceled"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, failCode(t, rec))
}

func TestValidWindow(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 10, h, 0, 0, 0, time.UTC) }

	assert.NoError(t, validWindow(at(10), at(11)))
	assert.Error(t, validWindow(at(11), at(10)))
	assert.Error(t, validWindow(at(10), at(10)))
	assert.Error(t, validWindow(time.Time{}, at(10)))
	assert.Error(t, validWindow(at(10), time.Time{}))
}

func TestCreateKidValidation(t *testing.T) {
	cases := []struct {
		name string
		req  createKidReq
		bad  []string
	}{
		{"valid", createKidReq{Name: "Lea", Gender: "girl", Age: 9, TrainingStyle: "group"}, nil},
		{"valid without style", createKidReq{Name: "Tim", Gender: "boy", Age: 12}, nil},
		{"missing name", createKidReq{Gender: "boy", Age: 9}, []string{"name"}},
		{"bad gender", createKidReq{Name: "Lea", Gender: "other", Age: 9}, []string{"gender"}},
		{"age too low", createKidReq{Name: "Lea", Gender: "girl", Age: 0}, []string{"age"}},
		{"age too high", createKidReq{Name: "Lea", Gender: "girl", Age: 18}, []string{"age"}},
		{"bad style", createKidReq{Name: "Lea", Gender: "girl", Age: 9, TrainingStyle: "hybrid"}, []string{"preferredTrainingStyle"}},
		{"everything wrong", createKidReq{}, []string{"name", "gender", "age"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			problems := tc.req.validate()
			if len(tc.bad) == 0 {
				assert.Nil(t, problems)
				return
			}
			require.NotNil(t, problems)
			for _, field := range tc.bad {
				assert.Contains(t, problems, field)
			}
		})
	}
}

func TestQueryIntDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=50&page=abc&zero=0&neg=-3", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, 50, queryInt(c, "limit", 20))
	assert.Equal(t, 1, queryInt(c, "page", 1))
	assert.Equal(t, 20, queryInt(c, "zero", 20))
	assert.Equal(t, 20, queryInt(c, "neg", 20))
	assert.Equal(t, 20, queryInt(c, "missing", 20))
}
