package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTicketNotFound           = errors.New("ticket not found")
	ErrTicketAlreadyUsed        = errors.New("ticket already used")
	ErrTicketCancelled          = errors.New("ticket is cancelled")
	ErrQuantityExceedsAllotment = errors.New("quantity exceeds registration allotment")
)

const (
	ticketStatusValid     = "valid"
	ticketStatusUsed      = "used"
	ticketStatusCancelled = "cancelled"
)

type Ticket struct {
	ID uint `gorm:"primaryKey"`

	UserID         uint `gorm:"not null;index"`
	EventID        uint `gorm:"not null;index"`
	RegistrationID uint `gorm:"not null;index"`

	Code   string `gorm:"uniqueIndex;not null"`
	Status string `gorm:"not null;default:valid"`

	ScannedAt *time.Time
	ScannedBy *uint

	QRDataURL   string `gorm:"type:text"`
	QRExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

// Insert issues len(drafts) tickets against one registration. The allotment
// bound is enforced by a single conditional counter increment on the
// registration row; two concurrent calls can never both pass the check and
// jointly overshoot the registration's quantity.
func (d *TicketDAO) Insert(ctx context.Context, registrationID uint, drafts []Ticket) ([]Ticket, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	var issued []Ticket

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n := len(drafts)

		result := tx.Model(&Registration{}).
			Where("id = ? AND status = ? AND tickets_issued + ? <= quantity",
				registrationID, registrationStatusConfirmed, n).
			Update("tickets_issued", gorm.Expr("tickets_issued + ?", n))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var reg Registration
			if err := tx.First(&reg, registrationID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRegistrationNotFound
				}
				return err
			}
			switch reg.Status {
			case registrationStatusWaitlisted:
				return ErrRegistrationWaitlisted
			case registrationStatusCancelled:
				return ErrRegistrationCancelled
			default:
				return ErrQuantityExceedsAllotment
			}
		}

		for i := range drafts {
			drafts[i].RegistrationID = registrationID
			drafts[i].Status = ticketStatusValid
		}
		if err := tx.Create(&drafts).Error; err != nil {
			return err
		}

		issued = drafts

		return nil
	})
	if err != nil {
		return nil, err
	}

	return issued, nil
}

func (d *TicketDAO) FindByID(ctx context.Context, id uint) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).First(&ticket, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByCode(ctx context.Context, code string) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).First(&ticket, "code = ?", code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByUserID(ctx context.Context, userID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) FindByEventID(ctx context.Context, eventID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// Scan atomically transitions a valid ticket to used, keyed on its code. The
// status check and the transition are one conditional UPDATE: of N concurrent
// scans of the same code exactly one matches the WHERE clause and wins, the
// rest observe the used row and report a replay. The lock scope is the ticket
// row only, independent of the event-level capacity lock.
func (d *TicketDAO) Scan(ctx context.Context, code string, scannerID uint) (Ticket, error) {
	now := time.Now().UTC()

	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("code = ? AND status = ?", code, ticketStatusValid).
		Updates(map[string]interface{}{
			"status":     ticketStatusUsed,
			"scanned_at": now,
			"scanned_by": scannerID,
		})
	if result.Error != nil {
		return Ticket{}, result.Error
	}

	ticket, err := d.FindByCode(ctx, code)
	if err != nil {
		return Ticket{}, err
	}

	if result.RowsAffected == 1 {
		return ticket, nil
	}

	switch ticket.Status {
	case ticketStatusUsed:
		return ticket, ErrTicketAlreadyUsed
	case ticketStatusCancelled:
		return ticket, ErrTicketCancelled
	default:
		return Ticket{}, fmt.Errorf("scan left ticket %d in unexpected status %q", ticket.ID, ticket.Status)
	}
}

// MarkUsed is the identifier-based admin override: it forces the transition
// to used without going through the code-based scan path. Only a ticket that
// is already used is rejected.
func (d *TicketDAO) MarkUsed(ctx context.Context, id, actorID uint) (Ticket, error) {
	now := time.Now().UTC()

	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("id = ? AND status <> ?", id, ticketStatusUsed).
		Updates(map[string]interface{}{
			"status":     ticketStatusUsed,
			"scanned_at": now,
			"scanned_by": actorID,
		})
	if result.Error != nil {
		return Ticket{}, result.Error
	}

	ticket, err := d.FindByID(ctx, id)
	if err != nil {
		return Ticket{}, err
	}

	if result.RowsAffected == 0 {
		return ticket, ErrTicketAlreadyUsed
	}

	return ticket, nil
}

// Cancel voids a single ticket: shrinks the registration's claim by one seat
// (quantity and the issued counter both drop), releases that seat back to the
// event and promotes from the waitlist, all in one transaction. Keeping the
// claim in sync means a later registration cancel releases only the seats the
// registration still holds, so one seat is never released through both paths.
// A used ticket cannot be cancelled.
func (d *TicketDAO) Cancel(ctx context.Context, id uint) (Ticket, []Registration, error) {
	var (
		cancelled Ticket
		promoted  []Registration
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket Ticket
		if err := tx.First(&ticket, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}

		// Lock order: event first, then the ticket row.
		event, err := lockEvent(tx, ticket.EventID)
		if err != nil {
			return err
		}

		if err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ticket, id).Error; err != nil {
			return err
		}
		switch ticket.Status {
		case ticketStatusUsed:
			return ErrTicketAlreadyUsed
		case ticketStatusCancelled:
			return ErrTicketCancelled
		}

		err = tx.Model(&Ticket{}).
			Where("id = ?", ticket.ID).
			Update("status", ticketStatusCancelled).Error
		if err != nil {
			return err
		}
		ticket.Status = ticketStatusCancelled

		err = tx.Model(&Registration{}).
			Where("id = ?", ticket.RegistrationID).
			Updates(map[string]interface{}{
				"tickets_issued": gorm.Expr("tickets_issued - 1"),
				"quantity":       gorm.Expr("quantity - 1"),
			}).Error
		if err != nil {
			return err
		}

		event.Capacity++
		promoted, err = promoteWaitlist(tx, &event)
		if err != nil {
			return err
		}
		if err = saveCapacity(tx, &event); err != nil {
			return err
		}

		cancelled = ticket

		return nil
	})
	if err != nil {
		return Ticket{}, nil, err
	}

	return cancelled, promoted, nil
}

// RegenerateCode swaps the scannable code and rendered QR of a still-valid
// ticket. The WHERE clause guarantees the old code can never validate again
// once the swap has been observed.
func (d *TicketDAO) RegenerateCode(ctx context.Context, id uint, code, qrDataURL string, qrExpiresAt time.Time) (Ticket, error) {
	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("id = ? AND status = ?", id, ticketStatusValid).
		Updates(map[string]interface{}{
			"code":          code,
			"qr_data_url":   qrDataURL,
			"qr_expires_at": qrExpiresAt,
		})
	if result.Error != nil {
		return Ticket{}, result.Error
	}

	ticket, err := d.FindByID(ctx, id)
	if err != nil {
		return Ticket{}, err
	}

	if result.RowsAffected == 0 {
		switch ticket.Status {
		case ticketStatusUsed:
			return Ticket{}, ErrTicketAlreadyUsed
		case ticketStatusCancelled:
			return Ticket{}, ErrTicketCancelled
		default:
			return Ticket{}, fmt.Errorf("regenerate matched no rows for valid ticket %d", ticket.ID)
		}
	}

	return ticket, nil
}
