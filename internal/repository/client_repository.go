package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// ClientRepo manages the extended client profiles.  List-typed attributes
// (goals, tags) and the emergency contact are stored as JSON columns.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientCols = `id, user_id, date_of_birth, gender, goals, fitness_level,
	assigned_coach_id, tags, status, notes, emergency_contact, created_at, updated_at`

func scanClient(row rowScanner) (model.Client, error) {
	var (
		c         model.Client
		dob       sql.NullTime
		gender    sql.NullString
		goals     sql.NullString
		level     sql.NullString
		coachID   sql.NullInt64
		tags      sql.NullString
		notes     sql.NullString
		emergency sql.NullString
	)
	err := row.Scan(&c.ID, &c.UserID, &dob, &gender, &goals, &level,
		&coachID, &tags, &c.Status, &notes, &emergency, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, err
	}
	if dob.Valid {
		t := dob.Time
		c.DateOfBirth = &t
	}
	c.Gender = gender.String
	c.FitnessLevel = level.String
	c.Notes = notes.String
	if goals.Valid && goals.String != "" {
		_ = json.Unmarshal([]byte(goals.String), &c.Goals)
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &c.Tags)
	}
	if coachID.Valid {
		id := uint64(coachID.Int64)
		c.AssignedCoachID = &id
	}
	if emergency.Valid && emergency.String != "" {
		var ec model.EmergencyContact
		if json.Unmarshal([]byte(emergency.String), &ec) == nil {
			c.EmergencyContact = &ec
		}
	}
	return c, nil
}

// Create inserts a client profile for the given user.  A second profile for
// the same user violates the unique index and maps to ErrProfileExists.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	goals, _ := jsonNull(c.Goals)
	tags, _ := jsonNull(c.Tags)
	emergency, _ := jsonNull(c.EmergencyContact)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO clients (user_id, date_of_birth, gender, goals, fitness_level, tags, notes, emergency_contact)
		 VALUES (?,?,?,?,?,?,?,?)`,
		c.UserID, c.DateOfBirth, nullStr(c.Gender), goals, nullStr(c.FitnessLevel),
		tags, nullStr(c.Notes), emergency)
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
	return nil
}

// GetByID fetches a client profile.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	c, err := scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Client{}, ErrNotFound
	}
	return c, err
}

// GetByUserID fetches the profile belonging to a user account.
func (r *ClientRepo) GetByUserID(ctx context.Context, userID uint64) (model.Client, error) {
	c, err := scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE user_id=? LIMIT 1", userID))
	if err == sql.ErrNoRows {
		return model.Client{}, ErrNotFound
	}
	return c, err
}

// List returns client profiles with pagination, newest first.
func (r *ClientRepo) List(ctx context.Context, coachID uint64, page, limit int) ([]model.Client, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if coachID != 0 {
		where += " AND assigned_coach_id=?"
		args = append(args, coachID)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientCols+" FROM clients"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update patches the mutable profile fields.
func (r *ClientRepo) Update(ctx context.Context, c *model.Client) error {
	goals, _ := jsonNull(c.Goals)
	tags, _ := jsonNull(c.Tags)
	emergency, _ := jsonNull(c.EmergencyContact)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE clients SET date_of_birth=?, gender=?, goals=?, fitness_level=?, tags=?, status=?, notes=?, emergency_contact=?
		 WHERE id=?`,
		c.DateOfBirth, nullStr(c.Gender), goals, nullStr(c.FitnessLevel), tags,
		c.Status, nullStr(c.Notes), emergency, c.ID)
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

// AssignCoach links a client to a coach.  Both rows must exist; a missing
// client maps to ErrNotFound and a missing coach to a foreign key error the
// handler reports as not found as well.
func (r *ClientRepo) AssignCoach(ctx context.Context, clientID, coachID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET assigned_coach_id=? WHERE id=?", coachID, clientID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return ErrNotFound
		}
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

// jsonNull marshals v to a JSON string, returning nil for empty slices,
// maps and nil pointers so the column stays NULL.
func jsonNull(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case *model.EmergencyContact:
		if t == nil {
			return nil, nil
		}
	case *model.AvailabilityRules:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
