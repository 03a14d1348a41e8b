package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository"
)

// fakePipelineRegRepo exposes the registration side of the shared ticket
// backend, so registration and ticket services in one test observe the same
// events, registrations and tickets, like they do against one database.
type fakePipelineRegRepo struct {
	b *fakeTicketBackend
}

func (f *fakePipelineRegRepo) Register(_ context.Context, userID, eventID uint, quantity int) (domain.Registration, error) {
	b := f.b
	b.mu.Lock()
	defer b.mu.Unlock()

	event, ok := b.events[eventID]
	if !ok {
		return domain.Registration{}, repository.ErrEventNotFound
	}
	if !event.IsOpenForRegistration() {
		return domain.Registration{}, repository.ErrEventNotOpen
	}

	for _, reg := range b.regs {
		if reg.UserID == userID && reg.EventID == eventID && reg.Status != domain.RegistrationStatusCancelled {
			return domain.Registration{}, repository.ErrAlreadyRegistered
		}
	}

	status := domain.RegistrationStatusWaitlisted
	if quantity <= event.Capacity {
		status = domain.RegistrationStatusConfirmed
		event.Capacity -= quantity
	}

	b.nextID++
	reg := &domain.Registration{
		ID:       b.nextID,
		UserID:   userID,
		EventID:  eventID,
		Quantity: quantity,
		Status:   status,
	}
	b.regs[reg.ID] = reg
	if status == domain.RegistrationStatusWaitlisted {
		b.waitlist = append(b.waitlist, reg.ID)
	}

	return *reg, nil
}

func (f *fakePipelineRegRepo) FindByID(_ context.Context, id uint) (domain.Registration, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	reg, ok := f.b.regs[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}

	return *reg, nil
}

func (f *fakePipelineRegRepo) FindByUserID(_ context.Context, userID uint) ([]domain.Registration, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	var out []domain.Registration
	for _, reg := range f.b.regs {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}

	return out, nil
}

func (f *fakePipelineRegRepo) Cancel(_ context.Context, id uint) (domain.Registration, []domain.Registration, error) {
	b := f.b
	b.mu.Lock()
	defer b.mu.Unlock()

	reg, ok := b.regs[id]
	if !ok {
		return domain.Registration{}, nil, repository.ErrRegistrationNotFound
	}
	if reg.Status == domain.RegistrationStatusCancelled {
		return domain.Registration{}, nil, repository.ErrRegistrationCancelled
	}

	wasConfirmed := reg.Status == domain.RegistrationStatusConfirmed
	reg.Status = domain.RegistrationStatusCancelled

	// Valid tickets cascade to cancelled; used ones keep their scan record.
	for _, t := range b.tickets {
		if t.RegistrationID == reg.ID && t.Status == domain.TicketStatusValid {
			t.Status = domain.TicketStatusCancelled
		}
	}

	var promoted []domain.Registration
	if wasConfirmed {
		event := b.events[reg.EventID]
		event.Capacity += reg.Quantity
		promoted = b.promoteLocked(event)
	}

	return *reg, promoted, nil
}

func (f *fakePipelineRegRepo) Delete(ctx context.Context, id uint) ([]domain.Registration, error) {
	_, promoted, err := f.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	delete(f.b.regs, id)

	return promoted, nil
}

func newPipelineServices(b *fakeTicketBackend, notif Notifier) (*RegistrationService, *TicketService) {
	return NewRegistrationService(&fakePipelineRegRepo{b}, notif), newTicketService(b, notif)
}

// Walks the full lifecycle against one shared backend: register until the
// event fills, issue, validate, scan, replay, cancel and promote.
func TestRegistrationTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 7, Role: domain.RoleStudent}
	bob := domain.User{ID: 8, Role: domain.RoleStudent}
	organizer := domain.User{ID: 2, Role: domain.RoleOrganizer}

	notif := &recordingNotifier{}
	b := newFakeTicketBackend().addEvent(&domain.Event{
		ID:          1,
		OrganizerID: 2,
		Capacity:    2,
		Status:      domain.EventStatusUpcoming,
		Approved:    true,
	})
	regSvc, ticketSvc := newPipelineServices(b, notif)

	// Alice takes the whole room, Bob queues behind her.
	aliceReg, err := regSvc.Register(ctx, alice.ID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusConfirmed, aliceReg.Status)
	require.Equal(t, 0, b.events[1].Capacity)

	bobReg, err := regSvc.Register(ctx, bob.ID, 1, 1)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusWaitlisted, bobReg.Status)

	tickets, err := ticketSvc.Issue(ctx, aliceReg.ID, 2, alice)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	checked, err := ticketSvc.Validate(ctx, tickets[0].Code)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusValid, checked.Status)

	// The gate consumes the first ticket exactly once.
	result, err := ticketSvc.Scan(ctx, tickets[0].Code, organizer)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCodeValid, result.Code)

	replay, err := ticketSvc.Scan(ctx, tickets[0].Code, organizer)
	assert.ErrorIs(t, err, ErrTicketAlreadyUsed)
	assert.True(t, replay.Alert)
	assert.Equal(t, []uint{tickets[0].ID}, notif.reuses)

	// Alice bails out. Her unused ticket is voided, the used one keeps its
	// scan record, and Bob moves off the waitlist into the freed seats.
	cancelled, err := regSvc.Cancel(ctx, aliceReg.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.TicketStatusUsed, b.tickets[tickets[0].ID].Status)
	assert.Equal(t, domain.TicketStatusCancelled, b.tickets[tickets[1].ID].Status)
	assert.Equal(t, domain.RegistrationStatusConfirmed, b.regs[bobReg.ID].Status)
	assert.Equal(t, []uint{bobReg.ID}, notif.promoted)

	// The cancelled registration can no longer back new tickets, Bob's can.
	_, err = ticketSvc.Issue(ctx, aliceReg.ID, 1, alice)
	assert.ErrorIs(t, err, ErrRegistrationCancelled)

	bobTickets, err := ticketSvc.Issue(ctx, bobReg.ID, 1, bob)
	require.NoError(t, err)
	assert.Len(t, bobTickets, 1)
}

// A seat freed by cancelling one ticket must not be released a second time
// when the whole registration is cancelled afterwards.
func TestCancelTicketThenRegistrationReleasesEachSeatOnce(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 7, Role: domain.RoleStudent}
	const capacity = 2

	b := newFakeTicketBackend().addEvent(&domain.Event{
		ID:          1,
		OrganizerID: 2,
		Capacity:    capacity,
		Status:      domain.EventStatusUpcoming,
		Approved:    true,
	})
	regSvc, ticketSvc := newPipelineServices(b, &recordingNotifier{})

	reg, err := regSvc.Register(ctx, alice.ID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 0, b.events[1].Capacity)

	tickets, err := ticketSvc.Issue(ctx, reg.ID, 2, alice)
	require.NoError(t, err)

	// Cancelling one ticket returns one seat and shrinks the claim with it.
	_, err = ticketSvc.CancelTicket(ctx, tickets[0].ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, b.events[1].Capacity)
	assert.Equal(t, 1, b.regs[reg.ID].Quantity)
	assert.Equal(t, 1, b.regs[reg.ID].TicketsIssued)

	// Cancelling the registration releases only the seat still held.
	_, err = regSvc.Cancel(ctx, reg.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, capacity, b.events[1].Capacity,
		"total released seats must equal the seats originally claimed")
}
