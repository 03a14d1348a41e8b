package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository/dao"
)

var (
	ErrTicketNotFound           = dao.ErrTicketNotFound
	ErrTicketAlreadyUsed        = dao.ErrTicketAlreadyUsed
	ErrTicketCancelled          = dao.ErrTicketCancelled
	ErrQuantityExceedsAllotment = dao.ErrQuantityExceedsAllotment
)

type TicketDAO interface {
	Insert(ctx context.Context, registrationID uint, drafts []dao.Ticket) ([]dao.Ticket, error)
	FindByID(ctx context.Context, id uint) (dao.Ticket, error)
	FindByCode(ctx context.Context, code string) (dao.Ticket, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Ticket, error)
	FindByEventID(ctx context.Context, eventID uint) ([]dao.Ticket, error)
	Scan(ctx context.Context, code string, scannerID uint) (dao.Ticket, error)
	MarkUsed(ctx context.Context, id, actorID uint) (dao.Ticket, error)
	Cancel(ctx context.Context, id uint) (dao.Ticket, []dao.Registration, error)
	RegenerateCode(ctx context.Context, id uint, code, qrDataURL string, qrExpiresAt time.Time) (dao.Ticket, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) Issue(ctx context.Context, registrationID uint, drafts []domain.Ticket) ([]domain.Ticket, error) {
	daoDrafts := make([]dao.Ticket, len(drafts))
	for i, t := range drafts {
		daoDrafts[i] = dao.Ticket{
			UserID:         t.UserID,
			EventID:        t.EventID,
			RegistrationID: t.RegistrationID,
			Code:           t.Code,
			QRDataURL:      t.QRDataURL,
			QRExpiresAt:    t.QRExpiresAt,
		}
	}

	issued, err := r.dao.Insert(ctx, registrationID, daoDrafts)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return ticketDaosToDomain(issued), nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id uint) (domain.Ticket, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return ticketDaoToDomain(found), nil
}

func (r *TicketRepository) FindByCode(ctx context.Context, code string) (domain.Ticket, error) {
	found, err := r.dao.FindByCode(ctx, code)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByCode -> %w", err)
	}

	return ticketDaoToDomain(found), nil
}

func (r *TicketRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Ticket, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return ticketDaosToDomain(found), nil
}

func (r *TicketRepository) FindByEventID(ctx context.Context, eventID uint) ([]domain.Ticket, error) {
	found, err := r.dao.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEventID -> %w", err)
	}

	return ticketDaosToDomain(found), nil
}

func (r *TicketRepository) Scan(ctx context.Context, code string, scannerID uint) (domain.Ticket, error) {
	scanned, err := r.dao.Scan(ctx, code, scannerID)
	if err != nil {
		// The ticket state still matters to the caller on replay.
		return ticketDaoToDomain(scanned), fmt.Errorf("r.dao.Scan -> %w", err)
	}

	return ticketDaoToDomain(scanned), nil
}

func (r *TicketRepository) MarkUsed(ctx context.Context, id, actorID uint) (domain.Ticket, error) {
	marked, err := r.dao.MarkUsed(ctx, id, actorID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.MarkUsed -> %w", err)
	}

	return ticketDaoToDomain(marked), nil
}

func (r *TicketRepository) Cancel(ctx context.Context, id uint) (domain.Ticket, []domain.Registration, error) {
	cancelled, promoted, err := r.dao.Cancel(ctx, id)
	if err != nil {
		return domain.Ticket{}, nil, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	promotedRegs := make([]domain.Registration, 0, len(promoted))
	for _, reg := range promoted {
		promotedRegs = append(promotedRegs, domain.Registration{
			ID:            reg.ID,
			UserID:        reg.UserID,
			EventID:       reg.EventID,
			Quantity:      reg.Quantity,
			Status:        reg.Status,
			TicketsIssued: reg.TicketsIssued,
			CreatedAt:     reg.CreatedAt,
			UpdatedAt:     reg.UpdatedAt,
		})
	}
	if len(promotedRegs) == 0 {
		promotedRegs = nil
	}

	return ticketDaoToDomain(cancelled), promotedRegs, nil
}

func (r *TicketRepository) RegenerateCode(ctx context.Context, id uint, code, qrDataURL string, qrExpiresAt time.Time) (domain.Ticket, error) {
	updated, err := r.dao.RegenerateCode(ctx, id, code, qrDataURL, qrExpiresAt)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.RegenerateCode -> %w", err)
	}

	return ticketDaoToDomain(updated), nil
}

func ticketDaoToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:             t.ID,
		UserID:         t.UserID,
		EventID:        t.EventID,
		RegistrationID: t.RegistrationID,
		Code:           t.Code,
		Status:         t.Status,
		ScannedAt:      t.ScannedAt,
		ScannedBy:      t.ScannedBy,
		QRDataURL:      t.QRDataURL,
		QRExpiresAt:    t.QRExpiresAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func ticketDaosToDomain(tickets []dao.Ticket) []domain.Ticket {
	if len(tickets) == 0 {
		return nil
	}

	out := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = ticketDaoToDomain(t)
	}

	return out
}
