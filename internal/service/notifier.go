package service

import (
	"context"

	"github.com/eventtix/eventtix-api/internal/domain"
)

// Notifier is the downstream alerting collaborator. It is informed, never
// consulted: implementations must be best-effort and a failed dispatch must
// not fail the core operation that triggered it.
type Notifier interface {
	// TicketReuseDetected is raised when a scan observes an already-used
	// code, which may indicate a copied or fraudulent ticket.
	TicketReuseDetected(ctx context.Context, ticket domain.Ticket, scannerID uint)

	// RegistrationPromoted is raised for every registration promoted off a
	// waitlist after capacity was released.
	RegistrationPromoted(ctx context.Context, registration domain.Registration)
}
