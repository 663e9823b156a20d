package model

import "time"

// Roles recognized by the platform.  The values travel inside JWT claims
// and route allow-sets, so they are lowercase strings rather than iota.
const (
	RoleAdmin  = "admin"
	RoleTeam   = "team"
	RoleCoach  = "coach"
	RoleClient = "client"
)

// Account statuses.
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// ValidRole reports whether s is one of the recognized roles.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleTeam, RoleCoach, RoleClient:
		return true
	}
	return false
}

// User mirrors the 'users' table.  PasswordHash is never serialized.
type User struct {
	ID                  uint64     `json:"id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Name                string     `json:"name"`
	Phone               string     `json:"phone"`
	Role                string     `json:"role"`
	Status              string     `json:"status"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	KidsDataCompleted   bool       `json:"kidsDataCompleted"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Locked reports whether the account's lockout window is still active at
// the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
