package model

import "time"

// AvailabilityRules describe when a coach accepts bookings.  They are kept
// as a JSON blob on the coach row; the booking path does not evaluate them
// yet (working-hours validation is a pending follow-up of the scheduling
// module).
type AvailabilityRules struct {
	WorkingDays       []string `json:"workingDays,omitempty"`
	WorkStart         string   `json:"workStart,omitempty"` // "09:00"
	WorkEnd           string   `json:"workEnd,omitempty"`   // "17:00"
	Timezone          string   `json:"timezone,omitempty"`
	MaxSessionsPerDay int      `json:"maxSessionsPerDay,omitempty"`
	BreakMinutes      int      `json:"breakMinutes,omitempty"`
}

// KPICache is the denormalized per-coach performance snapshot.  It is
// refreshed by the session-events consumer, never written on the request
// path, and read-only for API callers.
type KPICache struct {
	TotalSessions int       `json:"totalSessions"`
	TotalClients  int       `json:"totalClients"`
	AverageRating float64   `json:"averageRating"`
	EarningsCents int64     `json:"earningsCents"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Coach is the extended profile linked 1:1 to a user with role "coach".
type Coach struct {
	ID                  uint64             `json:"id"`
	UserID              uint64             `json:"userId"`
	Specialties         []string           `json:"specialties,omitempty"`
	Bio                 string             `json:"bio,omitempty"`
	Certifications      []string           `json:"certifications,omitempty"`
	YearsOfExperience   int                `json:"yearsOfExperience,omitempty"`
	HourlyRateCents     int64              `json:"hourlyRateCents,omitempty"`
	Availability        *AvailabilityRules `json:"availability,omitempty"`
	KPIs                *KPICache          `json:"kpis,omitempty"`
	Status              string             `json:"status"`
	AcceptingNewClients bool               `json:"acceptingNewClients"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}
