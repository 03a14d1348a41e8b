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

// fakeRegistrationStore honors the same atomic contract as the Postgres
// layer: one mutex plays the role of the per-event row lock, so every
// register/cancel decision and its capacity update happen indivisibly.
type fakeRegistrationStore struct {
	mu     sync.Mutex
	events map[uint]*domain.Event
	regs   map[uint]*domain.Registration
	order  []uint
	nextID uint
}

func newFakeRegistrationStore(events ...*domain.Event) *fakeRegistrationStore {
	s := &fakeRegistrationStore{
		events: make(map[uint]*domain.Event),
		regs:   make(map[uint]*domain.Registration),
	}
	for _, e := range events {
		s.events[e.ID] = e
	}

	return s
}

func (s *fakeRegistrationStore) Register(_ context.Context, userID, eventID uint, quantity int) (domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return domain.Registration{}, repository.ErrEventNotFound
	}
	if !event.IsOpenForRegistration() {
		return domain.Registration{}, repository.ErrEventNotOpen
	}

	for _, reg := range s.regs {
		if reg.UserID == userID && reg.EventID == eventID && reg.Status != domain.RegistrationStatusCancelled {
			return domain.Registration{}, repository.ErrAlreadyRegistered
		}
	}

	status := domain.RegistrationStatusWaitlisted
	if quantity <= event.Capacity {
		status = domain.RegistrationStatusConfirmed
		event.Capacity -= quantity
	}

	s.nextID++
	reg := &domain.Registration{
		ID:       s.nextID,
		UserID:   userID,
		EventID:  eventID,
		Quantity: quantity,
		Status:   status,
	}
	s.regs[reg.ID] = reg
	s.order = append(s.order, reg.ID)

	return *reg, nil
}

func (s *fakeRegistrationStore) FindByID(_ context.Context, id uint) (domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}

	return *reg, nil
}

func (s *fakeRegistrationStore) FindByUserID(_ context.Context, userID uint) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Registration
	for _, id := range s.order {
		if reg := s.regs[id]; reg.UserID == userID {
			out = append(out, *reg)
		}
	}

	return out, nil
}

func (s *fakeRegistrationStore) Cancel(_ context.Context, id uint) (domain.Registration, []domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return domain.Registration{}, nil, repository.ErrRegistrationNotFound
	}
	if reg.Status == domain.RegistrationStatusCancelled {
		return domain.Registration{}, nil, repository.ErrRegistrationCancelled
	}

	wasConfirmed := reg.Status == domain.RegistrationStatusConfirmed
	reg.Status = domain.RegistrationStatusCancelled

	var promoted []domain.Registration
	if wasConfirmed {
		event := s.events[reg.EventID]
		event.Capacity += reg.Quantity
		promoted = s.promoteLocked(event)
	}

	return *reg, promoted, nil
}

func (s *fakeRegistrationStore) Delete(_ context.Context, id uint) ([]domain.Registration, error) {
	_, promoted, err := s.Cancel(context.Background(), id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regs, id)

	return promoted, nil
}

// promoteLocked walks the waitlist in arrival order and stops at the first
// entry that does not fit, exactly like the storage layer does.
func (s *fakeRegistrationStore) promoteLocked(event *domain.Event) []domain.Registration {
	var promoted []domain.Registration
	for _, id := range s.order {
		reg := s.regs[id]
		if reg.EventID != event.ID || reg.Status != domain.RegistrationStatusWaitlisted {
			continue
		}
		if reg.Quantity > event.Capacity {
			break
		}

		reg.Status = domain.RegistrationStatusConfirmed
		event.Capacity -= reg.Quantity
		promoted = append(promoted, *reg)
	}

	return promoted
}

type recordingNotifier struct {
	mu       sync.Mutex
	reuses   []uint
	promoted []uint
}

func (n *recordingNotifier) TicketReuseDetected(_ context.Context, ticket domain.Ticket, _ uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reuses = append(n.reuses, ticket.ID)
}

func (n *recordingNotifier) RegistrationPromoted(_ context.Context, registration domain.Registration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.promoted = append(n.promoted, registration.ID)
}

func openEvent(id uint, capacity int) *domain.Event {
	return &domain.Event{
		ID:       id,
		Capacity: capacity,
		Status:   domain.EventStatusUpcoming,
		Approved: true,
	}
}

func TestRegistrationService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms when capacity fits", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 10))
		svc := NewRegistrationService(store, &recordingNotifier{})

		reg, err := svc.Register(ctx, 7, 1, 3)

		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationStatusConfirmed, reg.Status)
		assert.Equal(t, 7, store.events[1].Capacity)
	})

	t.Run("waitlists when quantity exceeds remaining capacity", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 2))
		svc := NewRegistrationService(store, &recordingNotifier{})

		reg, err := svc.Register(ctx, 7, 1, 3)

		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationStatusWaitlisted, reg.Status)
		// A waitlisted registration must not consume capacity.
		assert.Equal(t, 2, store.events[1].Capacity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 10))
		svc := NewRegistrationService(store, &recordingNotifier{})

		_, err := svc.Register(ctx, 7, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = svc.Register(ctx, 7, 1, -2)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects duplicate active registration", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 10))
		svc := NewRegistrationService(store, &recordingNotifier{})

		_, err := svc.Register(ctx, 7, 1, 1)
		require.NoError(t, err)

		_, err = svc.Register(ctx, 7, 1, 1)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("allows re-registering after cancellation", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 10))
		svc := NewRegistrationService(store, &recordingNotifier{})
		actor := domain.User{ID: 7, Role: domain.RoleStudent}

		first, err := svc.Register(ctx, 7, 1, 2)
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, first.ID, actor)
		require.NoError(t, err)

		second, err := svc.Register(ctx, 7, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationStatusConfirmed, second.Status)
	})

	t.Run("rejects unknown or unapproved events", func(t *testing.T) {
		closed := openEvent(2, 10)
		closed.Approved = false
		store := newFakeRegistrationStore(closed)
		svc := NewRegistrationService(store, &recordingNotifier{})

		_, err := svc.Register(ctx, 7, 99, 1)
		assert.ErrorIs(t, err, ErrEventNotFound)

		_, err = svc.Register(ctx, 7, 2, 1)
		assert.ErrorIs(t, err, ErrEventNotOpen)
	})
}

func TestRegistrationService_Register_NeverOversells(t *testing.T) {
	ctx := context.Background()
	const capacity = 10
	const contenders = 50

	store := newFakeRegistrationStore(openEvent(1, capacity))
	svc := NewRegistrationService(store, &recordingNotifier{})

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, _ = svc.Register(ctx, userID, 1, 1)
		}(uint(i + 1))
	}
	wg.Wait()

	confirmed := 0
	waitlisted := 0
	for _, reg := range store.regs {
		switch reg.Status {
		case domain.RegistrationStatusConfirmed:
			confirmed += reg.Quantity
		case domain.RegistrationStatusWaitlisted:
			waitlisted++
		}
	}

	assert.Equal(t, capacity, confirmed)
	assert.Equal(t, contenders-capacity, waitlisted)
	assert.Equal(t, 0, store.events[1].Capacity)
}

func TestRegistrationService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("releases capacity exactly once", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 10))
		svc := NewRegistrationService(store, &recordingNotifier{})
		actor := domain.User{ID: 7, Role: domain.RoleStudent}

		reg, err := svc.Register(ctx, 7, 1, 4)
		require.NoError(t, err)
		require.Equal(t, 6, store.events[1].Capacity)

		cancelled, err := svc.Cancel(ctx, reg.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationStatusCancelled, cancelled.Status)
		assert.Equal(t, 10, store.events[1].Capacity)

		// A second cancel must be rejected, not release again.
		_, err = svc.Cancel(ctx, reg.ID, actor)
		assert.ErrorIs(t, err, ErrRegistrationCancelled)
		assert.Equal(t, 10, store.events[1].Capacity)
	})

	t.Run("only the owner or an admin may cancel", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 10))
		svc := NewRegistrationService(store, &recordingNotifier{})

		reg, err := svc.Register(ctx, 7, 1, 1)
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, reg.ID, domain.User{ID: 8, Role: domain.RoleStudent})
		assert.ErrorIs(t, err, ErrNotRegistrationOwner)

		_, err = svc.Cancel(ctx, reg.ID, domain.User{ID: 99, Role: domain.RoleAdmin})
		assert.NoError(t, err)
	})

	t.Run("cancelling a waitlisted registration releases nothing", func(t *testing.T) {
		store := newFakeRegistrationStore(openEvent(1, 1))
		svc := NewRegistrationService(store, &recordingNotifier{})

		_, err := svc.Register(ctx, 1, 1, 1)
		require.NoError(t, err)

		waitlisted, err := svc.Register(ctx, 2, 1, 1)
		require.NoError(t, err)
		require.Equal(t, domain.RegistrationStatusWaitlisted, waitlisted.Status)

		_, err = svc.Cancel(ctx, waitlisted.ID, domain.User{ID: 2, Role: domain.RoleStudent})
		require.NoError(t, err)
		assert.Equal(t, 0, store.events[1].Capacity)
	})
}

func TestRegistrationService_WaitlistPromotionIsStrictFIFO(t *testing.T) {
	ctx := context.Background()
	notif := &recordingNotifier{}

	// Capacity 2: A takes both seats. B wants 2 (won't fit a single freed
	// seat), C wants 1. When one seat frees up, B stays at the head and C
	// must NOT jump the queue.
	store := newFakeRegistrationStore(openEvent(1, 2))
	svc := NewRegistrationService(store, notif)

	a, err := svc.Register(ctx, 1, 1, 2)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusConfirmed, a.Status)

	b, err := svc.Register(ctx, 2, 1, 2)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusWaitlisted, b.Status)

	c, err := svc.Register(ctx, 3, 1, 1)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusWaitlisted, c.Status)

	// A frees both seats: B (head of queue) now fits and takes them, C still
	// waits because nothing is left after B.
	_, err = svc.Cancel(ctx, a.ID, domain.User{ID: 1, Role: domain.RoleStudent})
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationStatusConfirmed, store.regs[b.ID].Status)
	assert.Equal(t, domain.RegistrationStatusWaitlisted, store.regs[c.ID].Status)
	assert.Equal(t, 0, store.events[1].Capacity)
	assert.Equal(t, []uint{b.ID}, notif.promoted)
}

func TestRegistrationService_PromotionStopsAtFirstNonFit(t *testing.T) {
	ctx := context.Background()
	notif := &recordingNotifier{}

	// One freed seat, queue head needs two. The head blocks the queue even
	// though the entry behind it would fit.
	store := newFakeRegistrationStore(openEvent(1, 1))
	svc := NewRegistrationService(store, notif)

	a, err := svc.Register(ctx, 1, 1, 1)
	require.NoError(t, err)

	b, err := svc.Register(ctx, 2, 1, 2)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusWaitlisted, b.Status)

	c, err := svc.Register(ctx, 3, 1, 1)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusWaitlisted, c.Status)

	_, err = svc.Cancel(ctx, a.ID, domain.User{ID: 1, Role: domain.RoleStudent})
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationStatusWaitlisted, store.regs[b.ID].Status)
	assert.Equal(t, domain.RegistrationStatusWaitlisted, store.regs[c.ID].Status)
	assert.Equal(t, 1, store.events[1].Capacity)
	assert.Empty(t, notif.promoted)
}

func TestRegistrationService_GetRegistration(t *testing.T) {
	ctx := context.Background()
	store := newFakeRegistrationStore(openEvent(1, 10))
	svc := NewRegistrationService(store, &recordingNotifier{})

	reg, err := svc.Register(ctx, 7, 1, 1)
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		got, err := svc.GetRegistration(ctx, reg.ID, domain.User{ID: 7})
		require.NoError(t, err)
		assert.Equal(t, reg.ID, got.ID)
	})

	t.Run("stranger cannot read", func(t *testing.T) {
		_, err := svc.GetRegistration(ctx, reg.ID, domain.User{ID: 8})
		assert.ErrorIs(t, err, ErrNotRegistrationOwner)
	})

	t.Run("admin can read", func(t *testing.T) {
		_, err := svc.GetRegistration(ctx, reg.ID, domain.User{ID: 99, Role: domain.RoleAdmin})
		assert.NoError(t, err)
	})

	t.Run("unknown registration", func(t *testing.T) {
		_, err := svc.GetRegistration(ctx, 12345, domain.User{ID: 7})
		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	})
}
