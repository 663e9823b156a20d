// Package repository implements data access over MySQL.  This file defines
// sentinel errors reused across repositories.  Handlers translate them into
// the typed API errors; repositories never shape HTTP responses themselves.
package repository

import "errors"

// ErrEmailExists is returned when inserting a user whose normalized email
// already exists (unique index violation).
var ErrEmailExists = errors.New("email already exists")

// ErrProfileExists is returned when a user already has a client or coach
// profile and a second one is attempted.
var ErrProfileExists = errors.New("profile already exists")

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrTokenInvalid is returned when a refresh token hash is unknown, revoked
// or past its expiry.  Callers cannot distinguish the three cases; the
// distinction would leak token state to an attacker.
var ErrTokenInvalid = errors.New("refresh token invalid")

// ErrInvalidWindow is returned when a reschedule patch would persist a
// session whose merged window has startsAt >= endsAt.
var ErrInvalidWindow = errors.New("invalid session window")

// ErrOverlap is returned when a booking or reschedule would overlap an
// existing scheduled/in-progress session for the same coach.
var ErrOverlap = errors.New("session overlap")

// ErrInvalidTransition is returned when a session status change is not
// permitted by the lifecycle state machine.
var ErrInvalidTransition = errors.New("invalid status transition")
