package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRegistrationNotFound   = errors.New("registration not found")
	ErrAlreadyRegistered      = errors.New("user already registered for this event")
	ErrRegistrationCancelled  = errors.New("registration is cancelled")
	ErrRegistrationWaitlisted = errors.New("registration is waitlisted")
)

const (
	registrationStatusConfirmed  = "confirmed"
	registrationStatusWaitlisted = "waitlisted"
	registrationStatusCancelled  = "cancelled"
)

type Registration struct {
	ID uint `gorm:"primaryKey"`

	UserID  uint `gorm:"not null;index:idx_registrations_event_user"`
	EventID uint `gorm:"not null;index:idx_registrations_event_user"`

	Quantity      int    `gorm:"not null"`
	Status        string `gorm:"not null"`
	TicketsIssued int    `gorm:"not null;default:0"`

	Tickets []Ticket `gorm:"foreignKey:RegistrationID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// Register performs the whole registration attempt as one transaction: event
// lock, duplicate guard, capacity decision and registration insert. A partial
// application (capacity decremented without a registration row) can therefore
// not be observed.
func (d *RegistrationDAO) Register(ctx context.Context, userID, eventID uint, quantity int) (Registration, error) {
	var created Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if !event.openForRegistration() {
			return ErrEventNotOpen
		}

		// Cancelled registrations do not count against the duplicate guard.
		var existing int64
		err = tx.Model(&Registration{}).
			Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, registrationStatusCancelled).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		reg := Registration{
			UserID:   userID,
			EventID:  eventID,
			Quantity: quantity,
			Status:   registrationStatusWaitlisted,
		}
		if event.Capacity >= quantity {
			reg.Status = registrationStatusConfirmed
			event.Capacity -= quantity
			if err = saveCapacity(tx, &event); err != nil {
				return err
			}
		}

		if err = tx.Create(&reg).Error; err != nil {
			return err
		}

		created = reg

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return created, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).Preload("Tickets").First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByUserID(ctx context.Context, userID uint) ([]Registration, error) {
	var regs []Registration

	result := d.db.WithContext(ctx).
		Preload("Tickets").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

// Cancel transitions the registration to cancelled, cascades cancellation to
// its still-valid tickets, releases the reserved seats when the registration
// was confirmed and promotes waitlisted registrations into the freed
// capacity, all in one transaction. Already-used tickets keep their used
// status and scan record; the gate audit trail survives the cancellation.
// Cancelling twice is rejected so capacity is never released more than once
// per registration.
//
// The returned slice holds the registrations promoted off the waitlist.
func (d *RegistrationDAO) Cancel(ctx context.Context, id uint) (Registration, []Registration, error) {
	var (
		cancelled Registration
		promoted  []Registration
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Read without a lock first to learn the event, then take locks in
		// the fixed order event -> registration.
		var reg Registration
		if err := tx.First(&reg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		event, err := lockEvent(tx, reg.EventID)
		if err != nil {
			return err
		}

		if err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, id).Error; err != nil {
			return err
		}
		if reg.Status == registrationStatusCancelled {
			return ErrRegistrationCancelled
		}
		wasConfirmed := reg.Status == registrationStatusConfirmed

		err = tx.Model(&Ticket{}).
			Where("registration_id = ? AND status = ?", reg.ID, ticketStatusValid).
			Update("status", ticketStatusCancelled).Error
		if err != nil {
			return err
		}

		err = tx.Model(&Registration{}).
			Where("id = ?", reg.ID).
			Update("status", registrationStatusCancelled).Error
		if err != nil {
			return err
		}
		reg.Status = registrationStatusCancelled

		if wasConfirmed {
			event.Capacity += reg.Quantity
			promoted, err = promoteWaitlist(tx, &event)
			if err != nil {
				return err
			}
			if err = saveCapacity(tx, &event); err != nil {
				return err
			}
		}

		cancelled = reg

		return nil
	})
	if err != nil {
		return Registration{}, nil, err
	}

	return cancelled, promoted, nil
}

// Delete removes the registration and its tickets after applying cancel
// semantics. Used by cascading user/event deletion; an already cancelled
// registration is removed without releasing capacity again.
func (d *RegistrationDAO) Delete(ctx context.Context, id uint) ([]Registration, error) {
	var promoted []Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg Registration
		if err := tx.First(&reg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		event, err := lockEvent(tx, reg.EventID)
		if err != nil {
			return err
		}

		if err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, id).Error; err != nil {
			return err
		}

		if reg.Status == registrationStatusConfirmed {
			event.Capacity += reg.Quantity
			promoted, err = promoteWaitlist(tx, &event)
			if err != nil {
				return err
			}
			if err = saveCapacity(tx, &event); err != nil {
				return err
			}
		}

		if err = tx.Where("registration_id = ?", reg.ID).Delete(&Ticket{}).Error; err != nil {
			return err
		}

		return tx.Delete(&Registration{}, reg.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}
