package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/httpx"
	"github.com/coachware/fitness-coaching-backend/internal/middleware"
	"github.com/coachware/fitness-coaching-backend/internal/model"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
)

// CalendarHandler manages external calendar connections.  The provider
// OAuth exchange is stubbed: Connect persists whatever tokens the client
// obtained, and Sync only stamps the sync time.
// TODO: swap the stored tokens for a server-side Google OAuth exchange once
// the provider credentials are provisioned.
type CalendarHandler struct {
	Calendars *repository.CalendarRepo
}

func NewCalendarHandler(r *repository.CalendarRepo) *CalendarHandler {
	return &CalendarHandler{Calendars: r}
}

type connectCalendarReq struct {
	Provider     string     `json:"provider"`
	Email        string     `json:"email"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

func calendarProvider(p string) (string, bool) {
	if p == "" || p == "google" {
		return "google", true
	}
	return "", false
}

// Connect stores or replaces the caller's calendar connection.
func (h *CalendarHandler) Connect(c echo.Context) error {
	var req connectCalendarReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	provider, ok := calendarProvider(req.Provider)
	if !ok {
		return httpx.Fail(c, apperr.Validation("unsupported provider", map[string]string{"provider": req.Provider}))
	}
	if req.AccessToken == "" {
		return httpx.Fail(c, apperr.Validation("accessToken is required", nil))
	}

	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a := model.CalendarAccount{
		UserID:       uid,
		Provider:     provider,
		Email:        req.Email,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    req.ExpiresAt,
	}
	if err := h.Calendars.Upsert(ctx, &a); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusCreated, a)
}

// Status returns the caller's connection for the given provider.
func (h *CalendarHandler) Status(c echo.Context) error {
	provider, ok := calendarProvider(c.QueryParam("provider"))
	if !ok {
		return httpx.Fail(c, apperr.Validation("unsupported provider", nil))
	}
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Calendars.GetByUser(ctx, uid, provider)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.OK(c, http.StatusOK, echo.Map{"connected": false, "provider": provider})
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, echo.Map{"connected": true, "provider": provider, "account": a})
}

// Sync stamps a sync attempt for the caller's connection.  Actual event
// push/pull against the provider is not implemented yet.
func (h *CalendarHandler) Sync(c echo.Context) error {
	provider, ok := calendarProvider(c.QueryParam("provider"))
	if !ok {
		return httpx.Fail(c, apperr.Validation("unsupported provider", nil))
	}
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err := h.Calendars.MarkSynced(ctx, uid, provider, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Calendar connection"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, echo.Map{"syncedAt": now.Format(time.RFC3339)})
}
