package domain

import "time"

const (
	RegistrationStatusConfirmed  = "confirmed"
	RegistrationStatusWaitlisted = "waitlisted"
	RegistrationStatusCancelled  = "cancelled"
)

// Registration is a user's claim on seats for an event. TicketsIssued is the
// authoritative counter bounded by Quantity; the tickets themselves are
// separate rows owned by the registration.
type Registration struct {
	ID            uint      `json:"id"`
	UserID        uint      `json:"user_id"`
	EventID       uint      `json:"event_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	TicketsIssued int       `json:"tickets_issued"`
	Tickets       []Ticket  `json:"tickets,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
