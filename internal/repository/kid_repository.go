package repository

import (
	"context"
	"database/sql"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// KidRepo manages kid profiles.  Creating a kid also completes the parent's
// onboarding gate in the same transaction, so a parent can never end up with
// a kid row but an incomplete flag.
type KidRepo struct{ DB *sql.DB }

func NewKidRepo(db *sql.DB) *KidRepo { return &KidRepo{DB: db} }

const kidCols = "id, parent_id, name, gender, age, location, is_in_sports, training_style, created_at, updated_at"

// Create inserts a kid and marks the parent's kids_data_completed flag in
// one transaction.
func (r *KidRepo) Create(ctx context.Context, k *model.Kid) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO kids (parent_id, name, gender, age, location, is_in_sports, training_style)
		 VALUES (?,?,?,?,?,?,?)`,
		k.ParentID, k.Name, k.Gender, k.Age, k.Location, k.IsInSports, k.TrainingStyle)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET kids_data_completed=1 WHERE id=?", k.ParentID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	k.ID = uint64(id)
	return nil
}

// ListByParent returns all kids of a parent ordered by creation.
func (r *KidRepo) ListByParent(ctx context.Context, parentID uint64) ([]model.Kid, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+kidCols+" FROM kids WHERE parent_id=? ORDER BY created_at ASC", parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Kid
	for rows.Next() {
		var k model.Kid
		if err := rows.Scan(&k.ID, &k.ParentID, &k.Name, &k.Gender, &k.Age, &k.Location,
			&k.IsInSports, &k.TrainingStyle, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// GetByID fetches one kid.
func (r *KidRepo) GetByID(ctx context.Context, id uint64) (model.Kid, error) {
	var k model.Kid
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+kidCols+" FROM kids WHERE id=? LIMIT 1", id).
		Scan(&k.ID, &k.ParentID, &k.Name, &k.Gender, &k.Age, &k.Location,
			&k.IsInSports, &k.TrainingStyle, &k.CreatedAt, &k.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Kid{}, ErrNotFound
	}
	return k, err
}
