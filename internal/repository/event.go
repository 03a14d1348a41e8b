package repository

import (
	"context"
	"fmt"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
	ErrEventNotOpen  = dao.ErrEventNotOpen
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindAll(ctx context.Context) ([]dao.Event, error)
	Approve(ctx context.Context, id uint) (dao.Event, error)
	UpdateStatus(ctx context.Context, id uint, status string) (dao.Event, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *EventRepository) FindAll(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	events := make([]domain.Event, len(found))
	for i, e := range found {
		events[i] = r.daoToDomain(e)
	}

	return events, nil
}

func (r *EventRepository) Approve(ctx context.Context, id uint) (domain.Event, error) {
	approved, err := r.dao.Approve(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Approve -> %w", err)
	}

	return r.daoToDomain(approved), nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uint, status string) (domain.Event, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		OrganizerID: e.OrganizerID,
		Capacity:    e.Capacity,
		Status:      e.Status,
		Approved:    e.Approved,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		OrganizerID: e.OrganizerID,
		Capacity:    e.Capacity,
		Status:      e.Status,
		Approved:    e.Approved,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
