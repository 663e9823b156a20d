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
	"github.com/coachware/fitness-coaching-backend/internal/model"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
)

// TeamHandler holds the staff-only operations: user administration and
// coach assignment.  Routes mounting it are guarded by RequireRole(admin,
// team).
type TeamHandler struct {
	Users   *repository.UserRepo
	Clients *repository.ClientRepo
	Coaches *repository.CoachRepo
}

func NewTeamHandler(u *repository.UserRepo, cl *repository.ClientRepo, co *repository.CoachRepo) *TeamHandler {
	return &TeamHandler{Users: u, Clients: cl, Coaches: co}
}

type assignCoachReq struct {
	CoachID uint64 `json:"coachId"`
}

// AssignCoach links a client profile to a coach.
func (h *TeamHandler) AssignCoach(c echo.Context) error {
	clientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || clientID == 0 {
		return httpx.Fail(c, apperr.Validation("invalid client id", nil))
	}
	var req assignCoachReq
	if err := c.Bind(&req); err != nil || req.CoachID == 0 {
		return httpx.Fail(c, apperr.Validation("coachId is required", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Coaches.GetByID(ctx, req.CoachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Coach"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if err := h.Clients.AssignCoach(ctx, clientID, req.CoachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Client"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}

	cl, err := h.Clients.GetByID(ctx, clientID)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, cl)
}

// ListUsers returns user accounts filtered by role and status.
func (h *TeamHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role := c.QueryParam("role")
	if role != "" && !model.ValidRole(role) {
		return httpx.Fail(c, apperr.Validation("unknown role", map[string]string{"role": role}))
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	users, total, err := h.Users.List(ctx, role, c.QueryParam("status"), page, limit)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OKPage(c, http.StatusOK, users, page, limit, total)
}

type userStatusReq struct {
	Status string `json:"status"`
}

// UpdateUserStatus activates, deactivates or suspends a user account.
func (h *TeamHandler) UpdateUserStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid user id", nil))
	}
	var req userStatusReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	switch req.Status {
	case model.UserStatusActive, model.UserStatusInactive, model.UserStatusSuspended:
	default:
		return httpx.Fail(c, apperr.Validation("status must be active, inactive or suspended", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("User"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, u)
}

// GetUser returns one user account.
func (h *TeamHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid user id", nil))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("User"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, u)
}
