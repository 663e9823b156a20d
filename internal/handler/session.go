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
	"github.com/coachware/fitness-coaching-backend/internal/queue"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
	"github.com/coachware/fitness-coaching-backend/internal/service"
)

// SessionHandler owns the coaching session endpoints: booking, availability,
// lifecycle transitions, cancellation, feedback and reporting.  The overlap
// invariant itself lives in SessionRepo.Book/Update; the handler's job is
// validation, ownership checks and event publication.
type SessionHandler struct {
	Sessions *repository.SessionRepo
	Clients  *repository.ClientRepo
	Coaches  *repository.CoachRepo
}

func NewSessionHandler(s *repository.SessionRepo, cl *repository.ClientRepo, co *repository.CoachRepo) *SessionHandler {
	return &SessionHandler{Sessions: s, Clients: cl, Coaches: co}
}

// ----- DTOs -----

type createSessionReq struct {
	ClientID    uint64    `json:"clientId"`
	CoachID     uint64    `json:"coachId"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	SessionType string    `json:"sessionType"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
	PriceCents  int64     `json:"priceCents"`
	Tags        []string  `json:"tags"`
}

type checkAvailabilityReq struct {
	CoachID  uint64    `json:"coachId"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

type updateSessionReq struct {
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	SessionType *string    `json:"sessionType"`
	Location    *string    `json:"location"`
	Notes       *string    `json:"notes"`
	PriceCents  *int64     `json:"priceCents"`
	Tags        []string   `json:"tags"`
}

type cancelSessionReq struct {
	Reason string `json:"reason"`
}

type feedbackReq struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

type statusReq struct {
	Status string `json:"status"`
}

func validWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("startsAt and endsAt are required", nil)
	}
	if !start.Before(end) {
		return apperr.Validation("startsAt must be before endsAt", nil)
	}
	return nil
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid session id", nil)
	}
	return id, nil
}

// publish emits a lifecycle event; broker failures are logged by the
// publisher and deliberately not surfaced to the API caller.
func publish(ctx context.Context, kind string, s model.Session) {
	_ = service.PublishSessionEvent(ctx, queue.SessionEvent{
		Kind:       kind,
		SessionID:  s.ID,
		CoachID:    s.CoachID,
		ClientID:   s.ClientID,
		StartsAt:   s.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:     s.EndsAt.UTC().Format(time.RFC3339),
		PriceCents: s.PriceCents,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// callerOwnsSession reports whether the caller participates in the session:
// clients must own the client profile, coaches the coach profile.  Admin and
// team bypass ownership entirely.
func (h *SessionHandler) callerOwnsSession(ctx context.Context, c echo.Context, s model.Session) bool {
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
		cl, err := h.Clients.GetByUserID(ctx, uid)
		return err == nil && cl.ID == s.ClientID
	case model.RoleCoach:
		co, err := h.Coaches.GetByUserID(ctx, uid)
		return err == nil && co.ID == s.CoachID
	}
	return false
}

// Create books a session.  The overlap check and insert run as one
// serialized unit per coach inside the repository.
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	if req.ClientID == 0 || req.CoachID == 0 {
		return httpx.Fail(c, apperr.Validation("clientId and coachId are required", nil))
	}
	if err := validWindow(req.StartsAt, req.EndsAt); err != nil {
		return httpx.Fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Clients may only book for their own profile.
	if middleware.CurrentRole(c) == model.RoleClient {
		uid, _ := middleware.CurrentUserID(c)
		cl, err := h.Clients.GetByUserID(ctx, uid)
		if err != nil || cl.ID != req.ClientID {
			return httpx.Fail(c, apperr.Forbidden())
		}
	}
	if _, err := h.Clients.GetByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Client"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}

	s := model.Session{
		ClientID:    req.ClientID,
		CoachID:     req.CoachID,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		SessionType: req.SessionType,
		Location:    req.Location,
		Notes:       req.Notes,
		PriceCents:  req.PriceCents,
		Tags:        req.Tags,
	}
	if err := h.Sessions.Book(ctx, &s); err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return httpx.Fail(c, apperr.SessionOverlap())
		case errors.Is(err, repository.ErrNotFound):
			return httpx.Fail(c, apperr.NotFound("Coach"))
		default:
			return httpx.Fail(c, apperr.Internal(err))
		}
	}
	publish(ctx, queue.EventSessionBooked, s)
	return httpx.OK(c, http.StatusCreated, s)
}

// CheckAvailability is the read-only overlap predicate.
func (h *SessionHandler) CheckAvailability(c echo.Context) error {
	var req checkAvailabilityReq
	if err := c.Bind(&req); err != nil || req.CoachID == 0 {
		return httpx.Fail(c, apperr.Validation("coachId, startsAt and endsAt are required", nil))
	}
	if err := validWindow(req.StartsAt, req.EndsAt); err != nil {
		return httpx.Fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	available, err := h.Sessions.IsAvailable(ctx, req.CoachID, req.StartsAt.UTC(), req.EndsAt.UTC())
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, echo.Map{"available": available})
}

// List returns sessions matching the query filters.  Clients and coaches
// are implicitly scoped to their own sessions regardless of the filters
// they pass.
func (h *SessionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := repository.ListFilter{
		Status: c.QueryParam("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	if f.Status != "" && !model.ValidSessionStatus(f.Status) {
		return httpx.Fail(c, apperr.Validation("unknown status", map[string]string{"status": f.Status}))
	}
	if v := c.QueryParam("clientId"); v != "" {
		f.ClientID, _ = strconv.ParseUint(v, 10, 64)
	}
	if v := c.QueryParam("coachId"); v != "" {
		f.CoachID, _ = strconv.ParseUint(v, 10, 64)
	}
	if v := c.QueryParam("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httpx.Fail(c, apperr.Validation("dateFrom must be RFC3339", nil))
		}
		f.From = t.UTC()
	}
	if v := c.QueryParam("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httpx.Fail(c, apperr.Validation("dateTo must be RFC3339", nil))
		}
		f.To = t.UTC()
	}

	// Scope non-staff callers to their own sessions.
	uid, _ := middleware.CurrentUserID(c)
	switch middleware.CurrentRole(c) {
	case model.RoleClient:
		cl, err := h.Clients.GetByUserID(ctx, uid)
		if err != nil {
			return httpx.OKPage(c, http.StatusOK, []model.Session{}, f.Page, f.Limit, 0)
		}
		f.ClientID = cl.ID
	case model.RoleCoach:
		co, err := h.Coaches.GetByUserID(ctx, uid)
		if err != nil {
			return httpx.OKPage(c, http.StatusOK, []model.Session{}, f.Page, f.Limit, 0)
		}
		f.CoachID = co.ID
	}

	sessions, total, err := h.Sessions.List(ctx, f)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OKPage(c, http.StatusOK, sessions, f.Page, f.Limit, total)
}

// Get returns a single session the caller participates in.
func (h *SessionHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Session"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if !h.callerOwnsSession(ctx, c, s) {
		return httpx.Fail(c, apperr.Forbidden())
	}
	return httpx.OK(c, http.StatusOK, s)
}

// Update patches session fields.  Changing the time window re-runs the
// overlap check inside the booking transaction; a reschedule that would
// double-book the coach fails with SESS_OVERLAP.
func (h *SessionHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	var req updateSessionReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, apperr.Validation("Invalid request body", nil))
	}
	if req.StartsAt != nil && req.EndsAt != nil {
		if err := validWindow(*req.StartsAt, *req.EndsAt); err != nil {
			return httpx.Fail(c, err)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := repository.SessionPatch{
		SessionType: req.SessionType,
		Location:    req.Location,
		Notes:       req.Notes,
		PriceCents:  req.PriceCents,
		Tags:        req.Tags,
	}
	if req.StartsAt != nil {
		t := req.StartsAt.UTC()
		p.StartsAt = &t
	}
	if req.EndsAt != nil {
		t := req.EndsAt.UTC()
		p.EndsAt = &t
	}
	s, err := h.Sessions.Update(ctx, id, p)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return httpx.Fail(c, apperr.NotFound("Session"))
		case errors.Is(err, repository.ErrInvalidWindow):
			return httpx.Fail(c, apperr.Validation("startsAt must be before endsAt", nil))
		case errors.Is(err, repository.ErrOverlap):
			return httpx.Fail(c, apperr.SessionOverlap())
		default:
			return httpx.Fail(c, apperr.Internal(err))
		}
	}
	return httpx.OK(c, http.StatusOK, s)
}

// UpdateStatus advances the session lifecycle (scheduled -> in_progress ->
// completed, or to no_show).  Cancellation has its own endpoint carrying a
// reason.
func (h *SessionHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || !model.ValidSessionStatus(req.Status) {
		return httpx.Fail(c, apperr.Validation("a valid status is required", nil))
	}
	if req.Status == model.SessionCanceled {
		return httpx.Fail(c, apperr.Validation("use the cancel endpoint to cancel a session", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return httpx.Fail(c, apperr.NotFound("Session"))
		case errors.Is(err, repository.ErrInvalidTransition):
			return httpx.Fail(c, apperr.SessionInvalidState("Status transition not allowed"))
		default:
			return httpx.Fail(c, apperr.Internal(err))
		}
	}
	switch s.Status {
	case model.SessionCompleted:
		publish(ctx, queue.EventSessionCompleted, s)
	case model.SessionNoShow:
		publish(ctx, queue.EventSessionNoShow, s)
	}
	return httpx.OK(c, http.StatusOK, s)
}

// Cancel transitions a non-completed session to canceled, stamping who,
// when and why.
func (h *SessionHandler) Cancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	var req cancelSessionReq
	_ = c.Bind(&req)

	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Session"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if !h.callerOwnsSession(ctx, c, cur) {
		return httpx.Fail(c, apperr.Forbidden())
	}

	s, err := h.Sessions.Cancel(ctx, id, uid, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return httpx.Fail(c, apperr.NotFound("Session"))
		case errors.Is(err, repository.ErrInvalidTransition):
			return httpx.Fail(c, apperr.SessionCannotCancel())
		default:
			return httpx.Fail(c, apperr.Internal(err))
		}
	}
	publish(ctx, queue.EventSessionCanceled, s)
	return httpx.OK(c, http.StatusOK, s)
}

// AddFeedback records a rating on a completed session.  A repeated call
// overwrites the previous feedback.
func (h *SessionHandler) AddFeedback(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	var req feedbackReq
	if err := c.Bind(&req); err != nil || req.Rating < 1 || req.Rating > 5 {
		return httpx.Fail(c, apperr.Validation("rating must be between 1 and 5", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, apperr.NotFound("Session"))
		}
		return httpx.Fail(c, apperr.Internal(err))
	}
	if !h.callerOwnsSession(ctx, c, cur) {
		return httpx.Fail(c, apperr.Forbidden())
	}

	s, err := h.Sessions.AddFeedback(ctx, id, req.Rating, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return httpx.Fail(c, apperr.NotFound("Session"))
		case errors.Is(err, repository.ErrInvalidTransition):
			return httpx.Fail(c, apperr.SessionInvalidState("Can only add feedback to completed sessions"))
		default:
			return httpx.Fail(c, apperr.Internal(err))
		}
	}
	return httpx.OK(c, http.StatusOK, s)
}

// Upcoming returns the caller's next scheduled sessions.
func (h *SessionHandler) Upcoming(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return httpx.Fail(c, apperr.TokenInvalid())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	limit := queryInt(c, "limit", 10)
	var clientID, coachID uint64
	switch middleware.CurrentRole(c) {
	case model.RoleClient:
		cl, err := h.Clients.GetByUserID(ctx, uid)
		if err != nil {
			return httpx.OK(c, http.StatusOK, []model.Session{})
		}
		clientID = cl.ID
	case model.RoleCoach:
		co, err := h.Coaches.GetByUserID(ctx, uid)
		if err != nil {
			return httpx.OK(c, http.StatusOK, []model.Session{})
		}
		coachID = co.ID
	}

	sessions, err := h.Sessions.Upcoming(ctx, clientID, coachID, limit)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, sessions)
}

// Stats aggregates a coach's sessions for the requested period
// (week/month/year, defaulting to month).
func (h *SessionHandler) Stats(c echo.Context) error {
	coachID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || coachID == 0 {
		return httpx.Fail(c, apperr.Validation("invalid coach id", nil))
	}

	now := time.Now().UTC()
	var since time.Time
	switch c.QueryParam("period") {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "year":
		since = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	case "", "month":
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return httpx.Fail(c, apperr.Validation("period must be week, month or year", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Sessions.Stats(ctx, coachID, since)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err))
	}
	return httpx.OK(c, http.StatusOK, stats)
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
