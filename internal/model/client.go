package model

import "time"

// EmergencyContact is stored denormalized on the client profile.
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// Client is the extended profile linked 1:1 to a user with role "client".
type Client struct {
	ID               uint64            `json:"id"`
	UserID           uint64            `json:"userId"`
	DateOfBirth      *time.Time        `json:"dateOfBirth,omitempty"`
	Gender           string            `json:"gender,omitempty"`
	Goals            []string          `json:"goals,omitempty"`
	FitnessLevel     string            `json:"fitnessLevel,omitempty"`
	AssignedCoachID  *uint64           `json:"assignedCoachId,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Status           string            `json:"status"`
	Notes            string            `json:"notes,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
