package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/coachware/fitness-coaching-backend/internal/model"
	"github.com/coachware/fitness-coaching-backend/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,name,phone,role,status,failed_login_attempts,locked_until,last_login_at,kids_data_completed,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u           model.User
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.Status,
		&u.FailedLoginAttempts, &lockedUntil, &lastLogin, &u.KidsDataCompleted, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// Create inserts a user with a freshly hashed password and returns its ID.
// Emails are normalized to lowercase; the unique index enforces global
// uniqueness and surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, name, phone, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, phone, role) VALUES (?,?,?,?,?)",
		email, hash, name, phone, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns users filtered by optional role/status with offset pagination,
// newest first, along with the unfiltered-by-page total.
func (r *UserRepo) List(ctx context.Context, role, status string, page, limit int) ([]model.User, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if role != "" {
		where += " AND role=?"
		args = append(args, role)
	}
	if status != "" {
		where += " AND status=?"
		args = append(args, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var (
			u           model.User
			lockedUntil sql.NullTime
			lastLogin   sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.Status,
			&u.FailedLoginAttempts, &lockedUntil, &lastLogin, &u.KidsDataCompleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if lockedUntil.Valid {
			t := lockedUntil.Time
			u.LockedUntil = &t
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			u.LastLoginAt = &t
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// RecordFailedLogin bumps the failed-attempt counter and arms the lockout
// window once the threshold is reached.  Increment and compare happen in a
// single conditional UPDATE so two concurrent failures cannot lose a count
// to a read-modify-write race.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, email string, maxAttempts, lockoutMin int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     locked_until = IF(failed_login_attempts + 1 >= ?,
		                       DATE_ADD(UTC_TIMESTAMP(), INTERVAL ? MINUTE),
		                       locked_until)
		 WHERE email = ?`,
		maxAttempts, lockoutMin, email)
	return err
}

// ResetFailedLogins clears the counter and lockout and stamps the last
// successful login.
func (r *UserRepo) ResetFailedLogins(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=0, locked_until=NULL, last_login_at=UTC_TIMESTAMP() WHERE id=?",
		id)
	return err
}

// UpdatePassword replaces the stored hash.  Callers revoke outstanding
// refresh tokens alongside this.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
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

// SetKidsDataCompleted flips the onboarding gate consulted by the auth
// refresh path.
func (r *UserRepo) SetKidsDataCompleted(ctx context.Context, id uint64, completed bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET kids_data_completed=? WHERE id=?", completed, id)
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

// UpdateStatus activates, deactivates or suspends an account.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET status=? WHERE id=?", status, id)
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
