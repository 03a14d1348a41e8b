package domain

import "time"

const (
	TicketStatusValid     = "valid"
	TicketStatusUsed      = "used"
	TicketStatusCancelled = "cancelled"
)

// Scan outcome codes returned to gate staff.
const (
	ScanCodeValid       = "TICKET_VALID"
	ScanCodeAlreadyUsed = "TICKET_ALREADY_USED"
)

type Ticket struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"user_id"`
	EventID        uint       `json:"event_id"`
	RegistrationID uint       `json:"registration_id"`
	Code           string     `json:"code"`
	Status         string     `json:"status"`
	ScannedAt      *time.Time `json:"scanned_at,omitempty"`
	ScannedBy      *uint      `json:"scanned_by,omitempty"`
	QRDataURL      string     `json:"qr_data_url,omitempty"`
	QRExpiresAt    time.Time  `json:"qr_expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ScanResult is the outcome of a gate scan. Alert is set when a replayed code
// was detected so downstream fraud notification can be raised.
type ScanResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Alert   bool   `json:"alert"`
	Ticket  Ticket `json:"ticket"`
}
