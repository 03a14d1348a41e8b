package domain

import "time"

const (
	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// Event carries a live remaining-capacity counter, not the total seat count.
// Capacity is decremented when a registration is confirmed and incremented
// when one is cancelled.
type Event struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	OrganizerID uint      `json:"organizer_id"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsOpenForRegistration reports whether the event can accept new
// registrations: it must be approved by an admin and not yet finished.
// Capacity is checked separately; a full event still accepts waitlist entries.
func (e *Event) IsOpenForRegistration() bool {
	return e.Approved && (e.Status == EventStatusUpcoming || e.Status == EventStatusOngoing)
}
