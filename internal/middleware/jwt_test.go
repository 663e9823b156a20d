package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/utils"
)

const testSecret = "middleware-test-secret"

func doJWT(t *testing.T, authorization string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, "user@example.com", "coach", "U", 15)
	require.NoError(t, err)

	rec, c := doJWT(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	uid, ok := CurrentUserID(c)
	require.True(t, ok)
	assert.Equal(t, uint64(7), uid)
	assert.Equal(t, "coach", CurrentRole(c))
	assert.Equal(t, "user@example.com", c.Get("email"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := doJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperr.CodeTokenInvalid, errCode(t, rec))
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("some-other-secret", 7, "u@e.c", "client", "U", 15)
	require.NoError(t, err)

	rec, _ := doJWT(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperr.CodeTokenInvalid, errCode(t, rec))
}

func TestJWTAuthExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": 7,
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, _ := doJWT(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsNonHMAC(t *testing.T) {
	// alg=none style tokens must not pass
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 7})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec, _ := doJWT(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubjectID(t *testing.T) {
	id, ok := subjectID(jwt.MapClaims{"sub": float64(42)})
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	id, ok = subjectID(jwt.MapClaims{"sub": "99"})
	require.True(t, ok)
	assert.Equal(t, uint64(99), id)

	_, ok = subjectID(jwt.MapClaims{"sub": "not-a-number"})
	assert.False(t, ok)

	_, ok = subjectID(jwt.MapClaims{})
	assert.False(t, ok)
}
