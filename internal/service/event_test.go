package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository"
)

type fakeEventStore struct {
	mu     sync.Mutex
	events map[uint]*domain.Event
	nextID uint
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events: make(map[uint]*domain.Event),
	}
}

func (s *fakeEventStore) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	event.ID = s.nextID
	s.events[event.ID] = &event

	return event, nil
}

func (s *fakeEventStore) FindByID(_ context.Context, id uint) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return *event, nil
}

func (s *fakeEventStore) FindAll(_ context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Event, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, *event)
	}

	return out, nil
}

func (s *fakeEventStore) Approve(_ context.Context, id uint) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	event.Approved = true

	return *event, nil
}

func (s *fakeEventStore) UpdateStatus(_ context.Context, id uint, status string) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	event.Status = status

	return *event, nil
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(newFakeEventStore())

	t.Run("starts unapproved and upcoming", func(t *testing.T) {
		created, err := svc.CreateEvent(ctx, domain.Event{
			Name:        "  Spring Fair  ",
			Capacity:    100,
			OrganizerID: 2,
			Status:      domain.EventStatusOngoing,
			Approved:    true,
		})

		require.NoError(t, err)
		assert.Equal(t, "Spring Fair", created.Name)
		assert.Equal(t, domain.EventStatusUpcoming, created.Status)
		assert.False(t, created.Approved, "approval cannot be smuggled in at creation")
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, domain.Event{Name: "X", Capacity: 0})
		assert.ErrorIs(t, err, ErrInvalidEventCapacity)
	})
}

func TestEventService_ApproveEvent(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(newFakeEventStore())

	created, err := svc.CreateEvent(ctx, domain.Event{Name: "Fair", Capacity: 10})
	require.NoError(t, err)

	approved, err := svc.ApproveEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	_, err = svc.ApproveEvent(ctx, 999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_UpdateEventStatus(t *testing.T) {
	ctx := context.Background()
	organizer := domain.User{ID: 2, Role: domain.RoleOrganizer}
	admin := domain.User{ID: 99, Role: domain.RoleAdmin}

	newEvent := func(t *testing.T) (*EventService, domain.Event) {
		t.Helper()
		svc := NewEventService(newFakeEventStore())
		created, err := svc.CreateEvent(ctx, domain.Event{Name: "Fair", Capacity: 10, OrganizerID: 2})
		require.NoError(t, err)

		return svc, created
	}

	t.Run("walks the lifecycle forward", func(t *testing.T) {
		svc, event := newEvent(t)

		ongoing, err := svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusOngoing, organizer)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusOngoing, ongoing.Status)

		completed, err := svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusCompleted, organizer)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusCompleted, completed.Status)
	})

	t.Run("rejects skipping states and reviving finished events", func(t *testing.T) {
		svc, event := newEvent(t)

		_, err := svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusCompleted, organizer)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)

		_, err = svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusCancelled, organizer)
		require.NoError(t, err)

		_, err = svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusOngoing, organizer)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("only owner or admin", func(t *testing.T) {
		svc, event := newEvent(t)

		_, err := svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusOngoing, domain.User{ID: 55, Role: domain.RoleOrganizer})
		assert.ErrorIs(t, err, ErrNotEventOrganizer)

		_, err = svc.UpdateEventStatus(ctx, event.ID, domain.EventStatusOngoing, admin)
		assert.NoError(t, err)
	})
}

func TestEventService_IsEventOrganizer(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(newFakeEventStore())

	created, err := svc.CreateEvent(ctx, domain.Event{Name: "Fair", Capacity: 10, OrganizerID: 2})
	require.NoError(t, err)

	ok, err := svc.IsEventOrganizer(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsEventOrganizer(ctx, created.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
