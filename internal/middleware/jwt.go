package middleware // middleware provides shared request processing for handlers

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/httpx"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the claims into the request context.  The provided secret
// must match the one used when issuing tokens.  Handlers read the caller's
// identity via c.Get("user_id"), c.Get("email"), c.Get("role") and
// c.Get("name").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return httpx.Fail(c, &apperr.Error{
					Code: apperr.CodeTokenInvalid, Message: "Missing bearer token", Status: 401})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with the HS256 secret; reject any other signing method so
			// an attacker cannot downgrade to "none" or an asymmetric scheme.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return httpx.Fail(c, &apperr.Error{
					Code: apperr.CodeTokenInvalid, Message: "Invalid or expired access token", Status: 401})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return httpx.Fail(c, &apperr.Error{
					Code: apperr.CodeTokenInvalid, Message: "Invalid token claims", Status: 401})
			}

			uid, ok := subjectID(claims)
			if !ok {
				return httpx.Fail(c, &apperr.Error{
					Code: apperr.CodeTokenInvalid, Message: "Invalid token subject", Status: 401})
			}
			c.Set("user_id", uid)
			if v, ok := claims["email"].(string); ok {
				c.Set("email", v)
			}
			if v, ok := claims["role"].(string); ok {
				c.Set("role", v)
			}
			if v, ok := claims["name"].(string); ok {
				c.Set("name", v)
			}
			return next(c)
		}
	}
}

// subjectID extracts the numeric user id from the sub claim.  JWT numbers
// decode as float64; string subjects from other issuers are parsed as a
// fallback.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case float64:
		return uint64(v), true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// CurrentUserID returns the authenticated user's id from context.  The
// second result is false on unauthenticated routes.
func CurrentUserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get("user_id").(uint64)
	return v, ok
}

// CurrentRole returns the authenticated user's role, or "" when absent.
func CurrentRole(c echo.Context) string {
	v, _ := c.Get("role").(string)
	return v
}
