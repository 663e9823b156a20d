package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

func doRole(t *testing.T, role string, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}

	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"admin allowed", model.RoleAdmin, []string{model.RoleAdmin, model.RoleTeam}, http.StatusOK},
		{"team allowed", model.RoleTeam, []string{model.RoleAdmin, model.RoleTeam}, http.StatusOK},
		{"coach blocked from staff route", model.RoleCoach, []string{model.RoleAdmin, model.RoleTeam}, http.StatusForbidden},
		{"client blocked from staff route", model.RoleClient, []string{model.RoleAdmin, model.RoleTeam}, http.StatusForbidden},
		{"client allowed on client route", model.RoleClient, []string{model.RoleClient}, http.StatusOK},
		{"missing role", "", []string{model.RoleAdmin}, http.StatusForbidden},
		{"unknown role", "superuser", []string{model.RoleAdmin}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRole(t, tc.role, tc.allowed...)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
