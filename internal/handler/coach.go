package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/httpx"
	"github.com/coachware/fitness-coaching-backend/internal/middleware"
	"github.com/coachware/fitness-coaching-backend/internal/model"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
)

// CoachHandler serves coach profiles.  The listing endpoint is readable by
// every authenticated role and sits behind the response cache; the KPI
// snapshot on each profile is maintained asynchronously by the session
// events consumer.
type CoachHandler struct {
	Coaches *repository.CoachRepo
}

func NewCoachHandler(co *repository.CoachRepo) *CoachHandler {
	return &CoachHandler{Coaches: co}
}

type coachProfileReq struct {
	Specialties         []string                 `json:"specialties"`
	Bio                 *string                  `json:"bio"`
	Certifications      []string                 `json:"certifications"`
	YearsOfExperience   *int                     `json:"yearsOfExperience"`
	HourlyRateCents     *int64                   `json:"hourlyRateCents"`
	Availability        *model.AvailabilityRules `json:"availability"`
	Status              *string                  `json:"status"`
	AcceptingNewClients *bool                    `json:"acceptingNewClients"`
}

// Create builds the caller's coach profile; staff can pass userId to create
// one on behalf of a coach account.
func (h *CoachHandler) Create(c echo.Context) error {
	var req struct {
		coachProfileReq
		UserID uint64 `json:"userId"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}

	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	role := middleware.CurrentRole(c)
	target := uid
	if req.UserID != 0 && req.UserID != uid {
		if role != model.RoleAdmin && role != model.RoleTeam {
			return httpx.Fail(c, apperr.Forbidden())
		}
		target = req.UserID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	co := model.Coach{
		UserID:         target,
		Specialties:    req.Specialties,
		Certifications: req.Certifications,
		Availability:   req.Availability,
	}
	if req.Bio != nil {
		co.Bio = *req.Bio
	}
	if req.YearsOfExperience != nil {
		co.YearsOfExperience = *req.YearsOfExperience
	}
	if req.HourlyRateCents != nil {
		co.HourlyRateCents = *req.HourlyRateCents
	}
	if err := h.Coaches.Create(ctx, &co); err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return httpx.Fail(c, apperr.AlreadyExists("Coach profile already exists"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusCreated, co)
}

// List returns active coaches, optionally only those accepting new clients.
func (h *CoachHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	acceptingOnly := c.QueryParam("accepting") == "true"

	coaches, total, err := h.Coaches.List(ctx, acceptingOnly, page, limit)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OKPage(c, http.StatusOK, coaches, page, limit, total)
}

// Get returns one coach profile.
func (h *CoachHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid coach id", nil))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	co, err := h.Coaches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Coach"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, co)
}

// Me returns the caller's own coach profile.
func (h *CoachHandler) Me(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	co, err := h.Coaches.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Coach profile"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, co)
}

// Update patches a coach profile.  Coaches edit their own profile; status
// changes are reserved for staff.
func (h *CoachHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid coach id", nil))
	}
	var req coachProfileReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	co, err := h.Coaches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Coach"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	role := middleware.CurrentRole(c)
	staff := role == model.RoleAdmin || role == model.RoleTeam
	if !staff {
		uid, _ := middleware.CurrentUserID(c)
		if role != model.RoleCoach || co.UserID != uid {
			return httpx.Fail(c, apperr.Forbidden())
		}
	}

	if req.Specialties != nil {
		co.Specialties = req.Specialties
	}
	if req.Bio != nil {
		co.Bio = *req.Bio
	}
	if req.Certifications != nil {
		co.Certifications = req.Certifications
	}
	if req.YearsOfExperience != nil {
		co.YearsOfExperience = *req.YearsOfExperience
	}
	if req.HourlyRateCents != nil {
		co.HourlyRateCents = *req.HourlyRateCents
	}
	if req.Availability != nil {
		co.Availability = req.Availability
	}
	if req.AcceptingNewClients != nil {
		co.AcceptingNewClients = *req.AcceptingNewClients
	}
	if req.Status != nil {
		if !staff {
			return httpx.Fail(c, apperr.Forbidden())
		}
		co.Status = *req.Status
	}

	if err := h.Coaches.Update(ctx, &co); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Coach"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, co)
}
