package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/httpx"
)

// RequireRole returns a middleware enforcing that the authenticated caller's
// role is in the allow-set.  It assumes JWTAuth already ran and stored the
// role under "role".  Routes registered without RequireRole are open to any
// authenticated caller; an empty allow-set therefore never appears here.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return httpx.Fail(c, apperr.Forbidden())
			}
			return next(c)
		}
	}
}
