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

// KidHandler serves the child profiles attached to parent accounts.
// Creating the first kid clears the onboarding gate that blocks token
// refresh for client accounts.
type KidHandler struct {
	Kids *repository.KidRepo
}

func NewKidHandler(k *repository.KidRepo) *KidHandler { return &KidHandler{Kids: k} }

type createKidReq struct {
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	Age           int    `json:"age"`
	Location      string `json:"location"`
	IsInSports    bool   `json:"isInSports"`
	TrainingStyle string `json:"preferredTrainingStyle"`
}

func (r createKidReq) validate() map[string]string {
	problems := map[string]string{}
	if r.Name == "" {
		problems["name"] = "required"
	}
	if r.Gender != "boy" && r.Gender != "girl" {
		problems["gender"] = "must be boy or girl"
	}
	if r.Age < 1 || r.Age > 17 {
		problems["age"] = "must be between 1 and 17"
	}
	if r.TrainingStyle != "" && r.TrainingStyle != "personal" && r.TrainingStyle != "group" {
		problems["preferredTrainingStyle"] = "must be personal or group"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Create adds a kid under the calling parent and marks the parent's
// kids-data gate complete in the same transaction.
func (h *KidHandler) Create(c echo.Context) error {
	var req createKidReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	if problems := req.validate(); problems != nil {
		return httpx.Fail(c, apperr.Validation("Invalid kid data", problems))
	}

	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k := model.Kid{
		ParentID:      uid,
		Name:          req.Name,
		Gender:        req.Gender,
		Age:           req.Age,
		Location:      req.Location,
		IsInSports:    req.IsInSports,
		TrainingStyle: req.TrainingStyle,
	}
	if err := h.Kids.Create(ctx, &k); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusCreated, k)
}

// List returns the caller's kids.  Staff may pass parentId to inspect
// another parent's kids.
func (h *KidHandler) List(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	parentID := uid
	if v := c.QueryParam("parentId"); v != "" {
		role := middleware.CurrentRole(c)
		if role != model.RoleAdmin && role != model.RoleTeam {
			return httpx.Fail(c, apperr.Forbidden())
		}
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return httpx.Fail(c, apperr.Validation("invalid parentId", nil))
		}
		parentID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	kids, err := h.Kids.ListByParent(ctx, parentID)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	if kids == nil {
		kids = []model.Kid{}
	}
	return httpx.OK(c, http.StatusOK, kids)
}

// Get returns one kid.  Parents only see their own kids; staff see all.
func (h *KidHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, apperr.Validation("invalid kid id", nil))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k, err := h.Kids.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Kid"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	role := middleware.CurrentRole(c)
	if role != model.RoleAdmin && role != model.RoleTeam {
		uid, _ := middleware.CurrentUserID(c)
		if k.ParentID != uid {
			return httpx.Fail(c, apperr.Forbidden())
		}
	}
	return httpx.OK(c, http.StatusOK, k)
}
