package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository"
)

var (
	ErrEventNotFound           = repository.ErrEventNotFound
	ErrEventNotOpen            = repository.ErrEventNotOpen
	ErrNotEventOrganizer       = errors.New("user is not the event's organizer")
	ErrInvalidEventCapacity    = errors.New("capacity must be a positive integer")
	ErrInvalidStatusTransition = errors.New("invalid event status transition")
)

// allowedStatusTransitions encodes the event lifecycle:
// upcoming -> ongoing -> completed, with cancellation possible until the
// event has completed. Moderation approval is tracked separately.
var allowedStatusTransitions = map[string][]string{
	domain.EventStatusUpcoming: {domain.EventStatusOngoing, domain.EventStatusCancelled},
	domain.EventStatusOngoing:  {domain.EventStatusCompleted, domain.EventStatusCancelled},
}

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindAll(ctx context.Context) ([]domain.Event, error)
	Approve(ctx context.Context, id uint) (domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, status string) (domain.Event, error)
}

type EventService struct {
	repo EventRepository
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{
		repo: repo,
	}
}

// CreateEvent persists a new event owned by the organizer. Capacity is the
// number of open seats at creation; it decays as registrations confirm. The
// event starts unapproved and cannot accept registrations until an admin
// approves it.
func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	event.Name = strings.TrimSpace(event.Name)
	if event.Capacity <= 0 {
		return domain.Event{}, ErrInvalidEventCapacity
	}

	event.Status = domain.EventStatusUpcoming
	event.Approved = false

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return events, nil
}

// ApproveEvent is the moderation gate. The handler restricts it to admins.
func (s *EventService) ApproveEvent(ctx context.Context, id uint) (domain.Event, error) {
	approved, err := s.repo.Approve(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.repo.Approve -> %w", err)
	}

	return approved, nil
}

// UpdateEventStatus moves the event along its lifecycle. Only the owning
// organizer or an admin may do so, and only along an allowed transition.
func (s *EventService) UpdateEventStatus(ctx context.Context, id uint, status string, actor domain.User) (domain.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}

	if event.OrganizerID != actor.ID && !actor.IsAdmin() {
		return domain.Event{}, ErrNotEventOrganizer
	}

	allowed := false
	for _, next := range allowedStatusTransitions[event.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.Event{}, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	return updated, nil
}

// IsEventOrganizer is the organizer-directory predicate used to gate
// scanning and by-event ticket listing.
func (s *EventService) IsEventOrganizer(ctx context.Context, eventID, userID uint) (bool, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return false, err
	}

	return event.OrganizerID == userID, nil
}
