// Package notifier provides the default Notifier implementation, which logs
// alert-worthy outcomes for downstream pickup.
package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/eventtix/eventtix-api/internal/domain"
)

type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) TicketReuseDetected(_ context.Context, ticket domain.Ticket, scannerID uint) {
	zap.L().Warn("ticket reuse detected",
		zap.Uint("ticket_id", ticket.ID),
		zap.Uint("event_id", ticket.EventID),
		zap.Uint("owner_id", ticket.UserID),
		zap.Uint("scanner_id", scannerID),
	)
}

func (n *LogNotifier) RegistrationPromoted(_ context.Context, registration domain.Registration) {
	zap.L().Info("registration promoted from waitlist",
		zap.Uint("registration_id", registration.ID),
		zap.Uint("event_id", registration.EventID),
		zap.Uint("user_id", registration.UserID),
		zap.Int("quantity", registration.Quantity),
	)
}
