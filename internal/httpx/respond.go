// Package httpx renders the standard response envelope used by every
// endpoint: {ok, data, meta} on success and {ok:false, error, meta} on
// failure.  The meta block always carries a trace id and UTC timestamp so
// every response can be correlated with server logs.
package httpx

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Meta accompanies every response.
type Meta struct {
	TraceID    string      `json:"traceId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type successBody struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
	Meta Meta `json:"meta"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorBody struct {
	OK    bool      `json:"ok"`
	Error errorInfo `json:"error"`
	Meta  Meta      `json:"meta"`
}

// TraceID returns the trace id for the current request, minting one on
// first use and stashing it in the echo context so the whole request shares
// a single id.
func TraceID(c echo.Context) string {
	if v, ok := c.Get("trace_id").(string); ok && v != "" {
		return v
	}
	id := uuid.NewString()
	c.Set("trace_id", id)
	return id
}

func meta(c echo.Context, p *Pagination) Meta {
	return Meta{
		TraceID:    TraceID(c),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Pagination: p,
	}
}

// OK writes a success envelope with the given status and payload.
func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, successBody{OK: true, Data: data, Meta: meta(c, nil)})
}

// OKPage writes a success envelope carrying pagination metadata.
func OKPage(c echo.Context, status int, data any, page, limit, total int) error {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	p := &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
	return c.JSON(status, successBody{OK: true, Data: data, Meta: meta(c, p)})
}

// Fail maps any error to the error envelope.  Typed *apperr.Error values
// keep their code/status; anything else is logged with the trace id and
// surfaced as a generic internal error without leaking the cause.
func Fail(c echo.Context, err error) error {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	if e.Code == apperr.CodeInternal {
		log.Printf("internal error trace=%s method=%s path=%s err=%v",
			TraceID(c), c.Request().Method, c.Path(), e.Err)
	}
	body := errorBody{
		OK:    false,
		Error: errorInfo{Code: e.Code, Message: e.Message, Details: e.Details},
		Meta:  meta(c, nil),
	}
	return c.JSON(e.Status, body)
}
