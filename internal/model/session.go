package model

import "time"

// Session statuses.  Scheduled and in-progress sessions occupy the coach's
// calendar and participate in the overlap check; the rest do not.
const (
	SessionScheduled  = "scheduled"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionCanceled   = "canceled"
	SessionNoShow     = "no_show"
)

// ValidSessionStatus reports whether s is a recognized session status.
func ValidSessionStatus(s string) bool {
	switch s {
	case SessionScheduled, SessionInProgress, SessionCompleted, SessionCanceled, SessionNoShow:
		return true
	}
	return false
}

// sessionTransitions encodes the allowed status moves.  Completed, canceled
// and no_show are terminal.
var sessionTransitions = map[string][]string{
	SessionScheduled:  {SessionInProgress, SessionCanceled, SessionNoShow},
	SessionInProgress: {SessionCompleted, SessionCanceled, SessionNoShow},
}

// CanTransition reports whether a session may move from to next.
func CanTransition(from, next string) bool {
	for _, s := range sessionTransitions[from] {
		if s == next {
			return true
		}
	}
	return false
}

// BlocksCalendar reports whether a session in the given status holds its
// coach's time slot for overlap purposes.
func BlocksCalendar(status string) bool {
	return status == SessionScheduled || status == SessionInProgress
}

// Overlaps is the half-open interval test: [aStart,aEnd) and [bStart,bEnd)
// overlap iff each starts before the other ends.  Sessions that merely touch
// at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Feedback is a client's post-session rating.  Repeated submissions replace
// the previous value.
type Feedback struct {
	Rating      int       `json:"rating"`
	Comments    string    `json:"comments,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Session mirrors the 'sessions' table.
type Session struct {
	ID            uint64     `json:"id"`
	ClientID      uint64     `json:"clientId"`
	CoachID       uint64     `json:"coachId"`
	StartsAt      time.Time  `json:"startsAt"`
	EndsAt        time.Time  `json:"endsAt"`
	Status        string     `json:"status"`
	SessionType   string     `json:"sessionType,omitempty"`
	Location      string     `json:"location,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	PriceCents    int64      `json:"priceCents,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	CanceledAt    *time.Time `json:"canceledAt,omitempty"`
	CanceledBy    *uint64    `json:"canceledBy,omitempty"`
	CancelReason  string     `json:"cancelReason,omitempty"`
	Feedback      *Feedback  `json:"feedback,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
