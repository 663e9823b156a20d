package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// CalendarRepo stores external calendar connections.  One account per
// user+provider pair; reconnecting replaces the stored tokens.
type CalendarRepo struct{ DB *sql.DB }

func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{DB: db} }

const calendarCols = "id, user_id, provider, email, access_token, refresh_token, expires_at, last_synced_at, created_at, updated_at"

func scanCalendarAccount(row rowScanner) (model.CalendarAccount, error) {
	var (
		a          model.CalendarAccount
		email      sql.NullString
		expiresAt  sql.NullTime
		lastSynced sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Provider, &email, &a.AccessToken, &a.RefreshToken,
		&expiresAt, &lastSynced, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.CalendarAccount{}, err
	}
	a.Email = email.String
	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		a.LastSyncedAt = &t
	}
	return a, nil
}

// Upsert stores or replaces the calendar connection for a user+provider.
func (r *CalendarRepo) Upsert(ctx context.Context, a *model.CalendarAccount) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO calendar_accounts (user_id, provider, email, access_token, refresh_token, expires_at)
		 VALUES (?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   email=VALUES(email), access_token=VALUES(access_token),
		   refresh_token=VALUES(refresh_token), expires_at=VALUES(expires_at)`,
		a.UserID, a.Provider, nullStr(a.Email), a.AccessToken, a.RefreshToken, a.ExpiresAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		a.ID = uint64(id)
	}
	return nil
}

// GetByUser fetches a user's calendar account for the given provider.
func (r *CalendarRepo) GetByUser(ctx context.Context, userID uint64, provider string) (model.CalendarAccount, error) {
	a, err := scanCalendarAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+calendarCols+" FROM calendar_accounts WHERE user_id=? AND provider=? LIMIT 1",
		userID, provider))
	if err == sql.ErrNoRows {
		return model.CalendarAccount{}, ErrNotFound
	}
	return a, err
}

// MarkSynced stamps the last successful sync time.
func (r *CalendarRepo) MarkSynced(ctx context.Context, userID uint64, provider string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE calendar_accounts SET last_synced_at=? WHERE user_id=? AND provider=?",
		at, userID, provider)
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
