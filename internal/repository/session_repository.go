package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// SessionRepo owns the sessions table and the no-double-booking invariant.
// Booking and rescheduling run inside a transaction that locks the coach row
// first, so the overlap check and the write are a single serialized unit per
// coach; two concurrent bookings of the same slot cannot both commit.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionCols = `id, client_id, coach_id, starts_at, ends_at, status, session_type, location,
	notes, price_cents, payment_status, tags, canceled_at, canceled_by, cancel_reason,
	feedback_rating, feedback_comments, feedback_at, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (model.Session, error) {
	var (
		s            model.Session
		sessionType  sql.NullString
		location     sql.NullString
		notes        sql.NullString
		priceCents   sql.NullInt64
		payStatus    sql.NullString
		tagsJSON     sql.NullString
		canceledAt   sql.NullTime
		canceledBy   sql.NullInt64
		cancelReason sql.NullString
		fbRating     sql.NullInt64
		fbComments   sql.NullString
		fbAt         sql.NullTime
	)
	err := row.Scan(&s.ID, &s.ClientID, &s.CoachID, &s.StartsAt, &s.EndsAt, &s.Status,
		&sessionType, &location, &notes, &priceCents, &payStatus, &tagsJSON,
		&canceledAt, &canceledBy, &cancelReason, &fbRating, &fbComments, &fbAt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Session{}, err
	}
	s.SessionType = sessionType.String
	s.Location = location.String
	s.Notes = notes.String
	s.PriceCents = priceCents.Int64
	s.PaymentStatus = payStatus.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &s.Tags)
	}
	if canceledAt.Valid {
		t := canceledAt.Time
		s.CanceledAt = &t
	}
	if canceledBy.Valid {
		id := uint64(canceledBy.Int64)
		s.CanceledBy = &id
	}
	s.CancelReason = cancelReason.String
	if fbAt.Valid {
		s.Feedback = &model.Feedback{
			Rating:      int(fbRating.Int64),
			Comments:    fbComments.String,
			SubmittedAt: fbAt.Time,
		}
	}
	return s, nil
}

// hasOverlapTx runs the half-open overlap query against the coach's blocking
// sessions inside the caller's transaction.  excludeID skips one session
// (used on reschedule) and may be zero.
func hasOverlapTx(ctx context.Context, tx *sql.Tx, coachID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM sessions
	           WHERE coach_id = ? AND id <> ?
	             AND status IN ('scheduled','in_progress')
	             AND starts_at < ? AND ends_at > ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, coachID, excludeID, end, start).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// lockCoachTx takes a row lock on the coach, serializing all bookings for
// that coach until the transaction ends.
func lockCoachTx(ctx context.Context, tx *sql.Tx, coachID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM coaches WHERE id=? FOR UPDATE", coachID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// Book inserts a new scheduled session after verifying the slot is free.
// Lock, check and insert commit atomically; ErrOverlap is returned when the
// window collides with an existing scheduled or in-progress session.
func (r *SessionRepo) Book(ctx context.Context, s *model.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockCoachTx(ctx, tx, s.CoachID); err != nil {
		return err
	}
	overlap, err := hasOverlapTx(ctx, tx, s.CoachID, s.StartsAt, s.EndsAt, 0)
	if err != nil {
		return err
	}
	if overlap {
		return ErrOverlap
	}

	tags, err := tagsValue(s.Tags)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (client_id, coach_id, starts_at, ends_at, status, session_type,
		                       location, notes, price_cents, payment_status, tags)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.ClientID, s.CoachID, s.StartsAt, s.EndsAt, model.SessionScheduled,
		nullStr(s.SessionType), nullStr(s.Location), nullStr(s.Notes),
		nullI64(s.PriceCents), nullStr(s.PaymentStatus), tags)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.ID = uint64(id)
	s.Status = model.SessionScheduled
	return nil
}

// IsAvailable is the read-only variant of the overlap predicate.  It takes
// no locks; the answer is advisory and Book remains the authority.
func (r *SessionRepo) IsAvailable(ctx context.Context, coachID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM sessions
	           WHERE coach_id = ?
	             AND status IN ('scheduled','in_progress')
	             AND starts_at < ? AND ends_at > ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, coachID, end, start).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// GetByID fetches one session.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Session{}, ErrNotFound
	}
	return s, err
}

// ListFilter narrows List results.  Zero values mean "any".
type ListFilter struct {
	ClientID uint64
	CoachID  uint64
	Status   string
	From     time.Time
	To       time.Time
	Page     int
	Limit    int
}

// List returns sessions matching the filter ordered by start time, plus the
// total match count for pagination.
func (r *SessionRepo) List(ctx context.Context, f ListFilter) ([]model.Session, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.ClientID != 0 {
		where += " AND client_id=?"
		args = append(args, f.ClientID)
	}
	if f.CoachID != 0 {
		where += " AND coach_id=?"
		args = append(args, f.CoachID)
	}
	if f.Status != "" {
		where += " AND status=?"
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		where += " AND starts_at >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where += " AND starts_at <= ?"
		args = append(args, f.To)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionCols+" FROM sessions"+where+" ORDER BY starts_at ASC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Upcoming returns the next scheduled sessions for a client or coach.
func (r *SessionRepo) Upcoming(ctx context.Context, clientID, coachID uint64, limit int) ([]model.Session, error) {
	where := " WHERE starts_at >= UTC_TIMESTAMP() AND status='scheduled'"
	args := []any{}
	if clientID != 0 {
		where += " AND client_id=?"
		args = append(args, clientID)
	}
	if coachID != 0 {
		where += " AND coach_id=?"
		args = append(args, coachID)
	}
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionCols+" FROM sessions"+where+" ORDER BY starts_at ASC LIMIT ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SessionPatch carries the updatable fields.  Nil pointers leave the column
// untouched.
type SessionPatch struct {
	StartsAt    *time.Time
	EndsAt      *time.Time
	SessionType *string
	Location    *string
	Notes       *string
	PriceCents  *int64
	Tags        []string
}

// mergedWindow resolves the time window a patch would persist: patched
// endpoints where present, the stored ones elsewhere.
func (p SessionPatch) mergedWindow(cur model.Session) (start, end time.Time) {
	start, end = cur.StartsAt, cur.EndsAt
	if p.StartsAt != nil {
		start = *p.StartsAt
	}
	if p.EndsAt != nil {
		end = *p.EndsAt
	}
	return start, end
}

// Update patches a session.  When either time field changes, the overlap
// invariant is re-validated inside the same locked transaction used for
// booking; rescheduling can never silently double-book a coach.
func (r *SessionRepo) Update(ctx context.Context, id uint64, p SessionPatch) (model.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Session{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanSession(tx.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err == sql.ErrNoRows {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}

	start, end := p.mergedWindow(cur)
	// A partial patch can invert the interval even though each endpoint was
	// valid on its own; the merged pair is the one that gets persisted.
	if !start.Before(end) {
		return model.Session{}, ErrInvalidWindow
	}
	timesChanged := !start.Equal(cur.StartsAt) || !end.Equal(cur.EndsAt)
	if timesChanged && model.BlocksCalendar(cur.Status) {
		if err := lockCoachTx(ctx, tx, cur.CoachID); err != nil {
			return model.Session{}, err
		}
		overlap, err := hasOverlapTx(ctx, tx, cur.CoachID, start, end, cur.ID)
		if err != nil {
			return model.Session{}, err
		}
		if overlap {
			return model.Session{}, ErrOverlap
		}
	}

	set := "starts_at=?, ends_at=?"
	args := []any{start, end}
	if p.SessionType != nil {
		set += ", session_type=?"
		args = append(args, nullStr(*p.SessionType))
	}
	if p.Location != nil {
		set += ", location=?"
		args = append(args, nullStr(*p.Location))
	}
	if p.Notes != nil {
		set += ", notes=?"
		args = append(args, nullStr(*p.Notes))
	}
	if p.PriceCents != nil {
		set += ", price_cents=?"
		args = append(args, *p.PriceCents)
	}
	if p.Tags != nil {
		tags, err := tagsValue(p.Tags)
		if err != nil {
			return model.Session{}, err
		}
		set += ", tags=?"
		args = append(args, tags)
	}
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET "+set+" WHERE id=?", args...); err != nil {
		return model.Session{}, err
	}

	updated, err := scanSession(tx.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Session{}, err
	}
	committed = true
	return updated, nil
}

// UpdateStatus advances the lifecycle.  The previous status is part of the
// WHERE clause (compare-and-set), so a concurrent transition loses cleanly
// instead of overwriting.
func (r *SessionRepo) UpdateStatus(ctx context.Context, id uint64, next string) (model.Session, error) {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if !model.CanTransition(cur.Status, next) {
		return model.Session{}, ErrInvalidTransition
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET status=? WHERE id=? AND status=?", next, id, cur.Status)
	if err != nil {
		return model.Session{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Session{}, err
	}
	if n == 0 {
		return model.Session{}, ErrInvalidTransition
	}
	return r.GetByID(ctx, id)
}

// Cancel transitions any non-completed session to canceled, stamping actor,
// time and reason.  Canceling a completed session is rejected.
func (r *SessionRepo) Cancel(ctx context.Context, id, actorID uint64, reason string) (model.Session, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET status='canceled', canceled_at=UTC_TIMESTAMP(), canceled_by=?, cancel_reason=?
		 WHERE id=? AND status <> 'completed'`,
		actorID, nullStr(reason), id)
	if err != nil {
		return model.Session{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Session{}, err
	}
	if n == 0 {
		// Either the session does not exist or it is completed.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Session{}, err
		}
		return model.Session{}, ErrInvalidTransition
	}
	return r.GetByID(ctx, id)
}

// AddFeedback records a client rating on a completed session.  Repeated
// calls overwrite the previous feedback.
func (r *SessionRepo) AddFeedback(ctx context.Context, id uint64, rating int, comments string) (model.Session, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET feedback_rating=?, feedback_comments=?, feedback_at=UTC_TIMESTAMP()
		 WHERE id=? AND status='completed'`,
		rating, nullStr(comments), id)
	if err != nil {
		return model.Session{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Session{}, err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Session{}, err
		}
		return model.Session{}, ErrInvalidTransition
	}
	return r.GetByID(ctx, id)
}

// CoachStats aggregates a coach's sessions since a cutoff.
type CoachStats struct {
	Total        int   `json:"total"`
	Completed    int   `json:"completed"`
	Canceled     int   `json:"canceled"`
	NoShow       int   `json:"noShow"`
	RevenueCents int64 `json:"revenueCents"`
}

// Stats computes per-coach counters over sessions starting at or after
// since.  Revenue counts completed sessions only.
func (r *SessionRepo) Stats(ctx context.Context, coachID uint64, since time.Time) (CoachStats, error) {
	const q = `SELECT
	             COUNT(*),
	             COALESCE(SUM(status='completed'),0),
	             COALESCE(SUM(status='canceled'),0),
	             COALESCE(SUM(status='no_show'),0),
	             COALESCE(SUM(CASE WHEN status='completed' THEN COALESCE(price_cents,0) ELSE 0 END),0)
	           FROM sessions WHERE coach_id=? AND starts_at >= ?`
	var s CoachStats
	err := r.db.QueryRowContext(ctx, q, coachID, since).Scan(
		&s.Total, &s.Completed, &s.Canceled, &s.NoShow, &s.RevenueCents)
	return s, err
}

// KPITotals is the all-time aggregate backing the coach KPI cache.
type KPITotals struct {
	TotalSessions int
	TotalClients  int
	AverageRating float64
	EarningsCents int64
}

// KPITotals aggregates completed sessions for the KPI cache refresh run by
// the queue consumer.
func (r *SessionRepo) KPITotals(ctx context.Context, coachID uint64) (KPITotals, error) {
	const q = `SELECT
	             COUNT(*),
	             COUNT(DISTINCT client_id),
	             COALESCE(AVG(feedback_rating),0),
	             COALESCE(SUM(COALESCE(price_cents,0)),0)
	           FROM sessions WHERE coach_id=? AND status='completed'`
	var k KPITotals
	err := r.db.QueryRowContext(ctx, q, coachID).Scan(
		&k.TotalSessions, &k.TotalClients, &k.AverageRating, &k.EarningsCents)
	return k, err
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullI64(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func tagsValue(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
