package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// CoachRepo manages coach profiles and the denormalized KPI cache.  The
// cache columns are written only by RefreshKPIs (driven by the session
// events consumer) and are read-only on the request path.
type CoachRepo struct{ DB *sql.DB }

func NewCoachRepo(db *sql.DB) *CoachRepo { return &CoachRepo{DB: db} }

const coachCols = `id, user_id, specialties, bio, certifications, years_of_experience,
	hourly_rate_cents, availability, status, accepting_new_clients,
	kpi_total_sessions, kpi_total_clients, kpi_average_rating, kpi_earnings_cents, kpi_updated_at,
	created_at, updated_at`

func scanCoach(row rowScanner) (model.Coach, error) {
	var (
		c            model.Coach
		specialties  sql.NullString
		bio          sql.NullString
		certs        sql.NullString
		years        sql.NullInt64
		rate         sql.NullInt64
		availability sql.NullString
		kpiSessions  sql.NullInt64
		kpiClients   sql.NullInt64
		kpiRating    sql.NullFloat64
		kpiEarnings  sql.NullInt64
		kpiUpdated   sql.NullTime
	)
	err := row.Scan(&c.ID, &c.UserID, &specialties, &bio, &certs, &years,
		&rate, &availability, &c.Status, &c.AcceptingNewClients,
		&kpiSessions, &kpiClients, &kpiRating, &kpiEarnings, &kpiUpdated,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Coach{}, err
	}
	c.Bio = bio.String
	c.YearsOfExperience = int(years.Int64)
	c.HourlyRateCents = rate.Int64
	if specialties.Valid && specialties.String != "" {
		_ = json.Unmarshal([]byte(specialties.String), &c.Specialties)
	}
	if certs.Valid && certs.String != "" {
		_ = json.Unmarshal([]byte(certs.String), &c.Certifications)
	}
	if availability.Valid && availability.String != "" {
		var a model.AvailabilityRules
		if json.Unmarshal([]byte(availability.String), &a) == nil {
			c.Availability = &a
		}
	}
	if kpiUpdated.Valid {
		c.KPIs = &model.KPICache{
			TotalSessions: int(kpiSessions.Int64),
			TotalClients:  int(kpiClients.Int64),
			AverageRating: kpiRating.Float64,
			EarningsCents: kpiEarnings.Int64,
			LastUpdated:   kpiUpdated.Time,
		}
	}
	return c, nil
}

// Create inserts a coach profile for the given user.
func (r *CoachRepo) Create(ctx context.Context, c *model.Coach) error {
	specialties, _ := jsonNull(c.Specialties)
	certs, _ := jsonNull(c.Certifications)
	availability, _ := jsonNull(c.Availability)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO coaches (user_id, specialties, bio, certifications, years_of_experience, hourly_rate_cents, availability)
		 VALUES (?,?,?,?,?,?,?)`,
		c.UserID, specialties, nullStr(c.Bio), certs,
		nullI64(int64(c.YearsOfExperience)), nullI64(c.HourlyRateCents), availability)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrProfileExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Status = "active"
	c.AcceptingNewClients = true
	return nil
}

// GetByID fetches a coach profile.
func (r *CoachRepo) GetByID(ctx context.Context, id uint64) (model.Coach, error) {
	c, err := scanCoach(r.DB.QueryRowContext(ctx,
		"SELECT "+coachCols+" FROM coaches WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Coach{}, ErrNotFound
	}
	return c, err
}

// GetByUserID fetches the coach profile belonging to a user account.
func (r *CoachRepo) GetByUserID(ctx context.Context, userID uint64) (model.Coach, error) {
	c, err := scanCoach(r.DB.QueryRowContext(ctx,
		"SELECT "+coachCols+" FROM coaches WHERE user_id=? LIMIT 1", userID))
	if err == sql.ErrNoRows {
		return model.Coach{}, ErrNotFound
	}
	return c, err
}

// List returns coach profiles with pagination.  When acceptingOnly is set
// only coaches open to new clients are returned; this backs the public
// listing endpoint, which sits behind the response cache.
func (r *CoachRepo) List(ctx context.Context, acceptingOnly bool, page, limit int) ([]model.Coach, int, error) {
	where := " WHERE status='active'"
	if acceptingOnly {
		where += " AND accepting_new_clients=1"
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM coaches"+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+coachCols+" FROM coaches"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Coach
	for rows.Next() {
		c, err := scanCoach(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update patches the mutable coach fields.
func (r *CoachRepo) Update(ctx context.Context, c *model.Coach) error {
	specialties, _ := jsonNull(c.Specialties)
	certs, _ := jsonNull(c.Certifications)
	availability, _ := jsonNull(c.Availability)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE coaches SET specialties=?, bio=?, certifications=?, years_of_experience=?,
		        hourly_rate_cents=?, availability=?, status=?, accepting_new_clients=?
		 WHERE id=?`,
		specialties, nullStr(c.Bio), certs, nullI64(int64(c.YearsOfExperience)),
		nullI64(c.HourlyRateCents), availability, c.Status, c.AcceptingNewClients, c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RefreshKPIs writes a fresh KPI snapshot for the coach.
func (r *CoachRepo) RefreshKPIs(ctx context.Context, coachID uint64, totals KPITotals, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE coaches
		 SET kpi_total_sessions=?, kpi_total_clients=?, kpi_average_rating=?, kpi_earnings_cents=?, kpi_updated_at=?
		 WHERE id=?`,
		totals.TotalSessions, totals.TotalClients, totals.AverageRating, totals.EarningsCents, at, coachID)
	return err
}
