package model

import "time"

// CalendarAccount records a user's external calendar connection.  The OAuth
// exchange itself is stubbed; tokens stored here are placeholders until the
// provider integration lands.
type CalendarAccount struct {
	ID           uint64     `json:"id"`
	UserID       uint64     `json:"userId"`
	Provider     string     `json:"provider"` // "google"
	Email        string     `json:"email,omitempty"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
