package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/pkg/ticketcode"
	"github.com/eventtix/eventtix-api/internal/repository"
)

var (
	ErrTicketNotFound           = repository.ErrTicketNotFound
	ErrTicketAlreadyUsed        = repository.ErrTicketAlreadyUsed
	ErrTicketCancelled          = repository.ErrTicketCancelled
	ErrQuantityExceedsAllotment = repository.ErrQuantityExceedsAllotment
	ErrRegistrationWaitlisted   = repository.ErrRegistrationWaitlisted
	ErrNotTicketOwner           = errors.New("user does not own this ticket")
	ErrAdminOnly                = errors.New("administrator privileges required")
)

// User-visible scan messages. Reuse gets a distinct, actionable message
// because it signals potential fraud, not an ordinary duplicate click.
const (
	scanMessageValid = "ticket valid"
	scanMessageReuse = "ticket already used, administrators notified"
)

type TicketRepository interface {
	Issue(ctx context.Context, registrationID uint, drafts []domain.Ticket) ([]domain.Ticket, error)
	FindByID(ctx context.Context, id uint) (domain.Ticket, error)
	FindByCode(ctx context.Context, code string) (domain.Ticket, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.Ticket, error)
	FindByEventID(ctx context.Context, eventID uint) ([]domain.Ticket, error)
	Scan(ctx context.Context, code string, scannerID uint) (domain.Ticket, error)
	MarkUsed(ctx context.Context, id, actorID uint) (domain.Ticket, error)
	Cancel(ctx context.Context, id uint) (domain.Ticket, []domain.Registration, error)
	RegenerateCode(ctx context.Context, id uint, code, qrDataURL string, qrExpiresAt time.Time) (domain.Ticket, error)
}

type IssuerRegistrationRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
}

type TicketEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type TicketService struct {
	repo      TicketRepository
	regRepo   IssuerRegistrationRepository
	eventRepo TicketEventRepository
	notifier  Notifier
}

func NewTicketService(
	repo TicketRepository,
	regRepo IssuerRegistrationRepository,
	eventRepo TicketEventRepository,
	notifier Notifier,
) *TicketService {
	return &TicketService{
		repo:      repo,
		regRepo:   regRepo,
		eventRepo: eventRepo,
		notifier:  notifier,
	}
}

// Issue creates quantity tickets against a confirmed registration owned by
// the actor (or any registration, for admins). The allotment bound
// ticketsIssued + quantity <= registration.quantity is enforced atomically in
// storage, so concurrent calls cannot jointly overshoot it.
func (s *TicketService) Issue(ctx context.Context, registrationID uint, quantity int, actor domain.User) ([]domain.Ticket, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	reg, err := s.regRepo.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}

		return nil, fmt.Errorf("s.regRepo.FindByID -> %w", err)
	}

	if reg.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotRegistrationOwner
	}

	drafts := make([]domain.Ticket, quantity)
	for i := range drafts {
		draft, err := s.newTicketDraft(reg)
		if err != nil {
			return nil, err
		}
		drafts[i] = draft
	}

	issued, err := s.repo.Issue(ctx, registrationID, drafts)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRegistrationNotFound):
			return nil, ErrRegistrationNotFound
		case errors.Is(err, repository.ErrRegistrationWaitlisted):
			return nil, ErrRegistrationWaitlisted
		case errors.Is(err, repository.ErrRegistrationCancelled):
			return nil, ErrRegistrationCancelled
		case errors.Is(err, repository.ErrQuantityExceedsAllotment):
			return nil, ErrQuantityExceedsAllotment
		}

		return nil, fmt.Errorf("s.repo.Issue -> %w", err)
	}

	return issued, nil
}

func (s *TicketService) newTicketDraft(reg domain.Registration) (domain.Ticket, error) {
	code := ticketcode.New()
	qrDataURL, err := ticketcode.QRDataURL(code)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("ticketcode.QRDataURL -> %w", err)
	}

	return domain.Ticket{
		UserID:         reg.UserID,
		EventID:        reg.EventID,
		RegistrationID: reg.ID,
		Code:           code,
		QRDataURL:      qrDataURL,
		QRExpiresAt:    time.Now().UTC().Add(ticketcode.QRTTL),
	}, nil
}

// Validate is the read-only pre-door self-check: it looks the ticket up by
// code and reports its state without mutating anything.
func (s *TicketService) Validate(ctx context.Context, code string) (domain.Ticket, error) {
	ticket, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return domain.Ticket{}, ErrTicketNotFound
		}

		return domain.Ticket{}, fmt.Errorf("s.repo.FindByCode -> %w", err)
	}

	switch ticket.Status {
	case domain.TicketStatusCancelled:
		return ticket, ErrTicketCancelled
	case domain.TicketStatusUsed:
		return ticket, ErrTicketAlreadyUsed
	}

	return ticket, nil
}

// Scan consumes a ticket code at the door. Only the event's organizer or an
// admin may scan. Of any number of concurrent scans of one code exactly one
// observes TICKET_VALID; the rest get TICKET_ALREADY_USED with the alert flag
// set, and the reuse is reported for fraud follow-up.
func (s *TicketService) Scan(ctx context.Context, code string, scanner domain.User) (domain.ScanResult, error) {
	ticket, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return domain.ScanResult{}, ErrTicketNotFound
		}

		return domain.ScanResult{}, fmt.Errorf("s.repo.FindByCode -> %w", err)
	}

	if !scanner.IsAdmin() {
		event, err := s.eventRepo.FindByID(ctx, ticket.EventID)
		if err != nil {
			return domain.ScanResult{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
		}
		if event.OrganizerID != scanner.ID {
			return domain.ScanResult{}, ErrNotEventOrganizer
		}
	}

	scanned, err := s.repo.Scan(ctx, code, scanner.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketAlreadyUsed):
			s.notifier.TicketReuseDetected(ctx, scanned, scanner.ID)

			return domain.ScanResult{
				Code:    domain.ScanCodeAlreadyUsed,
				Message: scanMessageReuse,
				Alert:   true,
				Ticket:  scanned,
			}, ErrTicketAlreadyUsed
		case errors.Is(err, repository.ErrTicketCancelled):
			return domain.ScanResult{}, ErrTicketCancelled
		case errors.Is(err, repository.ErrTicketNotFound):
			return domain.ScanResult{}, ErrTicketNotFound
		}

		return domain.ScanResult{}, fmt.Errorf("s.repo.Scan -> %w", err)
	}

	return domain.ScanResult{
		Code:    domain.ScanCodeValid,
		Message: scanMessageValid,
		Ticket:  scanned,
	}, nil
}

// MarkUsed force-transitions a ticket to used by identifier, for manual
// resolution at the door. Admin only.
func (s *TicketService) MarkUsed(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error) {
	if !actor.IsAdmin() {
		return domain.Ticket{}, ErrAdminOnly
	}

	marked, err := s.repo.MarkUsed(ctx, ticketID, actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return domain.Ticket{}, ErrTicketNotFound
		case errors.Is(err, repository.ErrTicketAlreadyUsed):
			return domain.Ticket{}, ErrTicketAlreadyUsed
		}

		return domain.Ticket{}, fmt.Errorf("s.repo.MarkUsed -> %w", err)
	}

	return marked, nil
}

// CancelTicket voids a single unused ticket, returning its seat to the event
// and promoting from the waitlist if someone now fits.
func (s *TicketService) CancelTicket(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error) {
	ticket, err := s.getOwnedTicket(ctx, ticketID, actor)
	if err != nil {
		return domain.Ticket{}, err
	}

	cancelled, promoted, err := s.repo.Cancel(ctx, ticket.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return domain.Ticket{}, ErrTicketNotFound
		case errors.Is(err, repository.ErrTicketAlreadyUsed):
			return domain.Ticket{}, ErrTicketAlreadyUsed
		case errors.Is(err, repository.ErrTicketCancelled):
			return domain.Ticket{}, ErrTicketCancelled
		}

		return domain.Ticket{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	for _, promotedReg := range promoted {
		s.notifier.RegistrationPromoted(ctx, promotedReg)
	}

	return cancelled, nil
}

// RegenerateCode replaces the ticket's code and QR image. The previous code
// will never validate again.
func (s *TicketService) RegenerateCode(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error) {
	ticket, err := s.getOwnedTicket(ctx, ticketID, actor)
	if err != nil {
		return domain.Ticket{}, err
	}

	code := ticketcode.New()
	qrDataURL, err := ticketcode.QRDataURL(code)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("ticketcode.QRDataURL -> %w", err)
	}

	updated, err := s.repo.RegenerateCode(ctx, ticket.ID, code, qrDataURL, time.Now().UTC().Add(ticketcode.QRTTL))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return domain.Ticket{}, ErrTicketNotFound
		case errors.Is(err, repository.ErrTicketAlreadyUsed):
			return domain.Ticket{}, ErrTicketAlreadyUsed
		case errors.Is(err, repository.ErrTicketCancelled):
			return domain.Ticket{}, ErrTicketCancelled
		}

		return domain.Ticket{}, fmt.Errorf("s.repo.RegenerateCode -> %w", err)
	}

	return updated, nil
}

func (s *TicketService) ListByUser(ctx context.Context, userID uint) ([]domain.Ticket, error) {
	tickets, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return tickets, nil
}

// ListByEvent returns every ticket issued for the event; restricted to the
// event's organizer and admins.
func (s *TicketService) ListByEvent(ctx context.Context, eventID uint, actor domain.User) ([]domain.Ticket, error) {
	if !actor.IsAdmin() {
		event, err := s.eventRepo.FindByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return nil, ErrEventNotFound
			}

			return nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
		}
		if event.OrganizerID != actor.ID {
			return nil, ErrNotEventOrganizer
		}
	}

	tickets, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByEventID -> %w", err)
	}

	return tickets, nil
}

func (s *TicketService) getOwnedTicket(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return domain.Ticket{}, ErrTicketNotFound
		}

		return domain.Ticket{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if ticket.UserID != actor.ID && !actor.IsAdmin() {
		return domain.Ticket{}, ErrNotTicketOwner
	}

	return ticket, nil
}
