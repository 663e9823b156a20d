package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, next string
		want       bool
	}{
		{SessionScheduled, SessionInProgress, true},
		{SessionScheduled, SessionCanceled, true},
		{SessionScheduled, SessionNoShow, true},
		{SessionScheduled, SessionCompleted, false},
		{SessionInProgress, SessionCompleted, true},
		{SessionInProgress, SessionCanceled, true},
		{SessionInProgress, SessionNoShow, true},
		{SessionInProgress, SessionScheduled, false},
		{SessionCompleted, SessionCanceled, false},
		{SessionCompleted, SessionInProgress, false},
		{SessionCanceled, SessionScheduled, false},
		{SessionNoShow, SessionCompleted, false},
		{"bogus", SessionScheduled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.next), "%s -> %s", tc.from, tc.next)
	}
}

func TestBlocksCalendar(t *testing.T) {
	assert.True(t, BlocksCalendar(SessionScheduled))
	assert.True(t, BlocksCalendar(SessionInProgress))
	assert.False(t, BlocksCalendar(SessionCompleted))
	assert.False(t, BlocksCalendar(SessionCanceled))
	assert.False(t, BlocksCalendar(SessionNoShow))
}

func TestOverlaps(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
	}
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"touching end to start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start to end", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint before", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
		{"disjoint after", at(12, 0), at(13, 0), at(10, 0), at(11, 0), false},
		{"one minute overlap", at(10, 0), at(11, 1), at(11, 0), at(12, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// overlap is symmetric
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestValidSessionStatus(t *testing.T) {
	for _, s := range []string{SessionScheduled, SessionInProgress, SessionCompleted, SessionCanceled, SessionNoShow} {
		assert.True(t, ValidSessionStatus(s), s)
	}
	assert.False(t, ValidSessionStatus(""))
	assert.False(t, ValidSessionStatus("SCHEDULED"))
	assert.False(t, ValidSessionStatus("done"))
}

func TestUserLocked(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	u := User{}
	assert.False(t, u.Locked(now))

	later := now.Add(10 * time.Minute)
	u.LockedUntil = &later
	assert.True(t, u.Locked(now))

	earlier := now.Add(-time.Minute)
	u.LockedUntil = &earlier
	assert.False(t, u.Locked(now))

	// boundary: lock expires exactly now
	u.LockedUntil = &now
	assert.False(t, u.Locked(now))
}
