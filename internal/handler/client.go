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

// ClientHandler serves the extended client profiles.
type ClientHandler struct {
	Clients *repository.ClientRepo
	Coaches *repository.CoachRepo
}

func NewClientHandler(cl *repository.ClientRepo, co *repository.CoachRepo) *ClientHandler {
	return &ClientHandler{Clients: cl, Coaches: co}
}

type clientProfileReq struct {
	DateOfBirth      *time.Time              `json:"dateOfBirth"`
	Gender           *string                 `json:"gender"`
	Goals            []string                `json:"goals"`
	FitnessLevel     *string                 `json:"fitnessLevel"`
	Tags             []string                `json:"tags"`
	Status           *string                 `json:"status"`
	Notes            *string                 `json:"notes"`
	EmergencyContact *model.EmergencyContact `json:"emergencyContact"`
}

// canViewClient: staff see everything, a client sees their own profile and
// a coach sees profiles assigned to them.
func (h *ClientHandler) canViewClient(ctx context.Context, c echo.Context, cl model.Client) bool {
	role := middleware.CurrentRole(c)
	if role == model.RoleAdmin || role == model.RoleTeam {
		return true
	}
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return false
	}
	switch role {
	case model.RoleClient:
		return cl.UserID == uid
	case model.RoleCoach:
		co, err := h.Coaches.GetByUserID(ctx, uid)
		return err == nil && cl.AssignedCoachID != nil && *cl.AssignedCoachID == co.ID
	}
	return false
}

// Create builds the caller's client profile; staff can pass userId to
// create one on behalf of a client account.
func (h *ClientHandler) Create(c echo.Context) error {
	var req struct {
		clientProfileReq
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

	cl := model.Client{
		UserID:           target,
		DateOfBirth:      req.DateOfBirth,
		Goals:            req.Goals,
		Tags:             req.Tags,
		EmergencyContact: req.EmergencyContact,
	}
	if req.Gender != nil {
		cl.Gender = *req.Gender
	}
	if req.FitnessLevel != nil {
		cl.FitnessLevel = *req.FitnessLevel
	}
	if req.Notes != nil {
		cl.Notes = *req.Notes
	}
	if err := h.Clients.Create(ctx, &cl); err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return httpx.Fail(c, apperr.AlreadyExists("Client profile already exists"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusCreated, cl)
}

// List returns client profiles.  Coaches are scoped to their own roster.
func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	var coachID uint64
	if v := c.QueryParam("coachId"); v != "" {
		coachID, _ = strconv.ParseUint(v, 10, 64)
	}
	if middleware.CurrentRole(c) == model.RoleCoach {
		uid, _ := middleware.CurrentUserID(c)
		co, err := h.Coaches.GetByUserID(ctx, uid)
		if err != nil {
			return httpx.OKPage(c, http.StatusOK, []model.Client{}, page, limit, 0)
		}
		coachID = co.ID
	}

	clients, total, err := h.Clients.List(ctx, coachID, page, limit)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OKPage(c, http.StatusOK, clients, page, limit, total)
}

// Get returns one client profile subject to the visibility rules.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid client id", nil))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Client"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if !h.canViewClient(ctx, c, cl) {
		return httpx.Fail(c, apperr.Forbidden())
	}
	return httpx.OK(c, http.StatusOK, cl)
}

// Me returns the caller's own client profile.
func (h *ClientHandler) Me(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Clients.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Client profile"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, cl)
}

// Update patches a client profile.  Clients can edit their own profile but
// not its status; staff can edit everything.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid client id", nil))
	}
	var req clientProfileReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Client"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	role := middleware.CurrentRole(c)
	staff := role == model.RoleAdmin || role == model.RoleTeam
	if !staff {
		uid, _ := middleware.CurrentUserID(c)
		if role != model.RoleClient || cl.UserID != uid {
			return httpx.Fail(c, apperr.Forbidden())
		}
	}

	if req.DateOfBirth != nil {
		cl.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		cl.Gender = *req.Gender
	}
	if req.Goals != nil {
		cl.Goals = req.Goals
	}
	if req.FitnessLevel != nil {
		cl.FitnessLevel = *req.FitnessLevel
	}
	if req.Tags != nil {
		cl.Tags = req.Tags
	}
	if req.Notes != nil {
		cl.Notes = *req.Notes
	}
	if req.EmergencyContact != nil {
		cl.EmergencyContact = req.EmergencyContact
	}
	if req.Status != nil {
		if !staff {
			return httpx.Fail(c, apperr.Forbidden())
		}
		cl.Status = *req.Status
	}

	if err := h.Clients.Update(ctx, &cl); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Client"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, cl)
}
