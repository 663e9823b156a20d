package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachware/fitness-coaching-backend/internal/apperr"
	"github.com/coachware/fitness-coaching-backend/internal/config"
	"github.com/coachware/fitness-coaching-backend/internal/httpx"
	"github.com/coachware/fitness-coaching-backend/internal/middleware"
	"github.com/coachware/fitness-coaching-backend/internal/model"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
	"github.com/coachware/fitness-coaching-backend/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // admin | team | coach | client
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID                uint64 `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	Status            string `json:"status"`
	KidsDataCompleted bool   `json:"kidsDataCompleted"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
		Status: u.Status, KidsDataCompleted: u.KidsDataCompleted,
	}
}

// issuePair signs a fresh access token and mints+stores a refresh token for
// the user.  Every call appends one ledger row.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, u.Name, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return httpx.Fail(c, apperr.Validation("email, password and name are required", nil))
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleClient
	}
	// Staff accounts are provisioned by an admin, never self-registered.
	if role != model.RoleClient && role != model.RoleCoach {
		return httpx.Fail(c, apperr.Validation("role must be client or coach", map[string]string{"role": role}))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.Name, req.Phone, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httpx.Fail(c, apperr.AlreadyExists("User with this email already exists"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusCreated, resp)
}

// Login: verify credentials, enforce the lockout window, return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return httpx.Fail(c, apperr.Validation("email and password are required", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.InvalidCredentials())
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if u.Status != model.UserStatusActive {
		return httpx.Fail(c, apperr.AccountDisabled())
	}
	if u.Locked(time.Now().UTC()) {
		return httpx.Fail(c, apperr.AccountLocked())
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		// The counter bump and threshold comparison run as one conditional
		// UPDATE in the store; see UserRepo.RecordFailedLogin.
		if err := h.Users.RecordFailedLogin(ctx, req.Email, h.Cfg.MaxFailedLogin, h.Cfg.LockoutMin); err != nil {
			return httpx.Fail(c, apperr.Internal(err))
		}
		return httpx.Fail(c, apperr.InvalidCredentials())
	}
	if err := h.Users.ResetFailedLogins(ctx, u.ID); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, resp)
}

// Refresh: redeem the presented token (rotation-on-use) and issue a new
// pair.  Redemption is a single conditional update in the ledger, so a
// replayed token always fails.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return httpx.Fail(c, apperr.Validation("refreshToken is required", nil))
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.Redeem(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return httpx.Fail(c, apperr.TokenInvalid())
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.TokenInvalid())
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if u.Status != model.UserStatusActive {
		return httpx.Fail(c, apperr.AccountDisabled())
	}
	// Onboarding gate: client accounts must have completed kids data before
	// a session can be extended.  The presented token is consumed either way.
	if u.Role == model.RoleClient && !u.KidsDataCompleted {
		return httpx.Fail(c, apperr.KidsDataRequired())
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, resp)
}

// Logout revokes the presented refresh token.  Revoking an unknown or
// already revoked token is a success: logout is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return httpx.Fail(c, apperr.Validation("refreshToken is required", nil))
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the authenticated user,
// terminating all sessions across devices.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("User"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, u)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every outstanding refresh token so stolen sessions die with the
// old password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return httpx.Fail(c, apperr.Validation("currentPassword and newPassword are required", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return httpx.Fail(c, apperr.InvalidCredentials())
	}
	if err := h.Users.UpdatePassword(ctx, uid, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return c.NoContent(http.StatusNoContent)
}
