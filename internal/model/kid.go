package model

import "time"

// Kid is a child profile attached to a parent user.  Creating the first kid
// completes the parent's onboarding gate (users.kids_data_completed), which
// the auth refresh path enforces.
type Kid struct {
	ID            uint64    `json:"id"`
	ParentID      uint64    `json:"parentId"`
	Name          string    `json:"name"`
	Gender        string    `json:"gender"` // "boy" | "girl"
	Age           int       `json:"age"`
	Location      string    `json:"location"`
	IsInSports    bool      `json:"isInSports"`
	TrainingStyle string    `json:"preferredTrainingStyle"` // "personal" | "group"
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
