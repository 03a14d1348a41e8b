package response

import (
	"github.com/eventtix/eventtix-api/internal/domain"
)

// ScanTicketResponse mirrors the scanner's verdict. Code is one of
// TICKET_VALID or TICKET_ALREADY_USED; Alert marks a reuse attempt that was
// escalated for follow-up.
type ScanTicketResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Alert   bool          `json:"alert,omitempty"`
	Ticket  domain.Ticket `json:"ticket"`
}

// ValidateTicketResponse is the read-only self-check verdict.
type ValidateTicketResponse struct {
	Valid  bool          `json:"valid"`
	Status string        `json:"status"`
	Ticket domain.Ticket `json:"ticket"`
}
