package repository

import (
	"context"
	"fmt"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound   = dao.ErrRegistrationNotFound
	ErrAlreadyRegistered      = dao.ErrAlreadyRegistered
	ErrRegistrationCancelled  = dao.ErrRegistrationCancelled
	ErrRegistrationWaitlisted = dao.ErrRegistrationWaitlisted
)

type RegistrationDAO interface {
	Register(ctx context.Context, userID, eventID uint, quantity int) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Registration, error)
	Cancel(ctx context.Context, id uint) (dao.Registration, []dao.Registration, error)
	Delete(ctx context.Context, id uint) ([]dao.Registration, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) Register(ctx context.Context, userID, eventID uint, quantity int) (domain.Registration, error) {
	created, err := r.dao.Register(ctx, userID, eventID, quantity)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Register -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *RegistrationRepository) Cancel(ctx context.Context, id uint) (domain.Registration, []domain.Registration, error) {
	cancelled, promoted, err := r.dao.Cancel(ctx, id)
	if err != nil {
		return domain.Registration{}, nil, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.daoToDomain(cancelled), r.daosToDomain(promoted), nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, id uint) ([]domain.Registration, error) {
	promoted, err := r.dao.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return r.daosToDomain(promoted), nil
}

func (r *RegistrationRepository) daoToDomain(reg dao.Registration) domain.Registration {
	out := domain.Registration{
		ID:            reg.ID,
		UserID:        reg.UserID,
		EventID:       reg.EventID,
		Quantity:      reg.Quantity,
		Status:        reg.Status,
		TicketsIssued: reg.TicketsIssued,
		CreatedAt:     reg.CreatedAt,
		UpdatedAt:     reg.UpdatedAt,
	}

	for _, t := range reg.Tickets {
		out.Tickets = append(out.Tickets, ticketDaoToDomain(t))
	}

	return out
}

func (r *RegistrationRepository) daosToDomain(regs []dao.Registration) []domain.Registration {
	if len(regs) == 0 {
		return nil
	}

	out := make([]domain.Registration, len(regs))
	for i, reg := range regs {
		out[i] = r.daoToDomain(reg)
	}

	return out
}
