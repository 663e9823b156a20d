// Package queue defines message payloads exchanged over the message broker.
package queue

// Session event kinds routed through the session.events queue.
const (
	EventSessionBooked    = "session.booked"
	EventSessionCanceled  = "session.canceled"
	EventSessionCompleted = "session.completed"
	EventSessionNoShow    = "session.no_show"
)

// SessionEvent is published on every session lifecycle change.  The KPI
// consumer uses CoachID to recompute the coach's cached aggregates; other
// consumers (notifications, analytics) can act on the rest without querying
// the primary database.
type SessionEvent struct {
	Kind       string `json:"kind"`
	SessionID  uint64 `json:"session_id"`
	CoachID    uint64 `json:"coach_id"`
	ClientID   uint64 `json:"client_id"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	PriceCents int64  `json:"price_cents,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
