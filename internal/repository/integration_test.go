//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachware/fitness-coaching-backend/internal/database"
	"github.com/coachware/fitness-coaching-backend/internal/utils"
)

// These tests need a live MySQL instance and run only under the integration
// build tag:
//
//	DB_HOST=127.0.0.1 DB_USER=root DB_NAME=coachware_test go test -tags integration ./internal/repository/
//
// They exercise the two invariants that live entirely in conditional SQL and
// therefore cannot be observed without the database: single-success refresh
// redemption and the lockout threshold arithmetic.

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set; skipping MySQL-backed tests")
	}
	db, err := database.Open(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), host,
		envOr("DB_PORT", "3306"), envOr("DB_NAME", "coachware_test"), 10, 5)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func uniqueEmail() string {
	return fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
}

func TestRedeemSingleSuccessUnderConcurrency(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)

	uid, err := users.Create(ctx, uniqueEmail(), "pw-integration", "Redeem Race", "", "client", 4)
	require.NoError(t, err)
	hash := utils.HashRefreshRaw(fmt.Sprintf("raw-%d", time.Now().UnixNano()))
	require.NoError(t, tokens.Store(ctx, uid, hash, time.Now().UTC().Add(time.Hour)))

	const attempts = 16
	var (
		wg   sync.WaitGroup
		wins int64
	)
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gotUID, err := tokens.Redeem(ctx, hash)
			if err != nil {
				errs <- err
				return
			}
			assert.Equal(t, uid, gotUID)
			atomic.AddInt64(&wins, 1)
		}()
	}
	wg.Wait()
	close(errs)

	assert.EqualValues(t, 1, wins, "exactly one redemption must win")
	for err := range errs {
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}

	// The winner consumed the token; a later replay fails too.
	_, err = tokens.Redeem(ctx, hash)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRecordFailedLoginArmsLockoutAtThreshold(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	email := uniqueEmail()
	uid, err := users.Create(ctx, email, "pw-integration", "Lockout", "", "client", 4)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, users.RecordFailedLogin(ctx, email, 5, 30))
	}
	u, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 4, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil, "below threshold must not lock")

	require.NoError(t, users.RecordFailedLogin(ctx, email, 5, 30))
	u, err = users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 5, u.FailedLoginAttempts)
	require.NotNil(t, u.LockedUntil)
	assert.True(t, u.Locked(time.Now().UTC()))
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), *u.LockedUntil, 2*time.Minute)

	// Successful login clears the counter and the lock.
	require.NoError(t, users.ResetFailedLogins(ctx, uid))
	u, err = users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
	assert.NotNil(t, u.LastLoginAt)
}
