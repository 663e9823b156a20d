package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// oneSessionDriver is a database/sql driver that answers every query with a
// single stored session (10:00-11:00, scheduled).  It lets Update's merged-
// window validation run through the real transaction plumbing without MySQL.

var storedStart = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func init() { sql.Register("onesession", oneSessionDriver{}) }

type oneSessionDriver struct{}

func (oneSessionDriver) Open(string) (driver.Conn, error) { return oneSessionConn{}, nil }

type oneSessionConn struct{}

func (oneSessionConn) Prepare(string) (driver.Stmt, error) { return oneSessionStmt{}, nil }
func (oneSessionConn) Close() error { return nil }
func (oneSessionConn) Begin() (driver.Tx, error) { return oneSessionTx{}, nil }

type oneSessionTx struct{}

func (oneSessionTx) Commit() error { return nil }
func (oneSessionTx) Rollback() error { return nil }

type oneSessionStmt struct{}

func (oneSessionStmt) Close() error { return nil }
func (oneSessionStmt) NumInput() int { return -1 }
func (oneSessionStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}
func (oneSessionStmt) Query([]driver.Value) (driver.Rows, error) {
	return &oneSessionRows{}, nil
}

type oneSessionRows struct{ done bool }

func (*oneSessionRows) Columns() []string { return make([]string, 20) }
func (*oneSessionRows) Close() error { return nil }

func (r *oneSessionRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	copy(dest, []driver.Value{
		int64(7), int64(1), int64(2), storedStart, storedStart.Add(time.Hour), "scheduled",
		nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
		storedStart, storedStart,
	})
	return nil
}

func TestUpdateRejectsInvertedMergedWindow(t *testing.T) {
	db, err := sql.Open("onesession", "")
	require.NoError(t, err)
	repo := NewSessionRepo(db)

	// Only endsAt is patched, landing before the stored 10:00 start.  Each
	// endpoint is valid alone; the pair that would be persisted is not.
	end := storedStart.Add(-30 * time.Minute)
	_, err = repo.Update(context.Background(), 7, SessionPatch{EndsAt: &end})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	// Same with startsAt pushed past the stored 11:00 end.
	start := storedStart.Add(2 * time.Hour)
	_, err = repo.Update(context.Background(), 7, SessionPatch{StartsAt: &start})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	// Zero-length merged window.
	start = storedStart.Add(time.Hour)
	_, err = repo.Update(context.Background(), 7, SessionPatch{StartsAt: &start})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestSessionPatchMergedWindow(t *testing.T) {
	cur := model.Session{StartsAt: storedStart, EndsAt: storedStart.Add(time.Hour)}
	newStart := storedStart.Add(15 * time.Minute)
	newEnd := storedStart.Add(45 * time.Minute)

	tests := []struct {
		name       string
		patch      SessionPatch
		start, end time.Time
	}{
		{"empty patch keeps stored window", SessionPatch{}, cur.StartsAt, cur.EndsAt},
		{"startsAt only", SessionPatch{StartsAt: &newStart}, newStart, cur.EndsAt},
		{"endsAt only", SessionPatch{EndsAt: &newEnd}, cur.StartsAt, newEnd},
		{"both endpoints", SessionPatch{StartsAt: &newStart, EndsAt: &newEnd}, newStart, newEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.patch.mergedWindow(cur)
			assert.True(t, start.Equal(tt.start))
			assert.True(t, end.Equal(tt.end))
		})
	}
}
