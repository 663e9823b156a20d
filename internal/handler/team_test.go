package handler

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
)

// emptyDriver is a database/sql driver whose every query matches no rows.
// It lets the not-found paths run through the real repositories without a
// MySQL instance.

func init() { sql.Register("emptydb", emptyDriver{}) }

type emptyDriver struct{}

func (emptyDriver) Open(string) (driver.Conn, error) { return emptyConn{}, nil }

type emptyConn struct{}

func (emptyConn) Prepare(string) (driver.Stmt, error) { return emptyStmt{}, nil }
func (emptyConn) Close() error { return nil }
func (emptyConn) Begin() (driver.Tx, error) { return emptyTx{}, nil }

type emptyTx struct{}

func (emptyTx) Commit() error { return nil }
func (emptyTx) Rollback() error { return nil }

type emptyStmt struct{}

func (emptyStmt) Close() error { return nil }
func (emptyStmt) NumInput() int { return -1 }
func (emptyStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(0), nil
}
func (emptyStmt) Query([]driver.Value) (driver.Rows, error) { return emptyRows{}, nil }

type emptyRows struct{}

func (emptyRows) Columns() []string { return nil }
func (emptyRows) Close() error { return nil }
func (emptyRows) Next([]driver.Value) error { return io.EOF }

func TestGetUserUnknownIDReturnsNotFound(t *testing.T) {
	db, err := sql.Open("emptydb", "")
	require.NoError(t, err)
	h := &TeamHandler{Users: repository.NewUserRepo(db)}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users/42", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.GetUser(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperr.CodeResourceNotFound, failCode(t, rec))
}

func TestGetUserRejectsBadID(t *testing.T) {
	h := &TeamHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, h.GetUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, failCode(t, rec))
}
