package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventNotOpen  = errors.New("event is not open for registration")
)

const (
	eventStatusUpcoming  = "upcoming"
	eventStatusOngoing   = "ongoing"
	eventStatusCompleted = "completed"
	eventStatusCancelled = "cancelled"
)

// Event holds the capacity ledger: Capacity is the number of remaining open
// seats and is only ever mutated inside a transaction that holds the event
// row lock. That row lock is the serialization point for all
// capacity-affecting operations on one event.
type Event struct {
	ID uint `gorm:"primaryKey"`

	Name        string `gorm:"not null"`
	Description string
	Location    string    `gorm:"not null"`
	StartsAt    time.Time `gorm:"not null"`
	OrganizerID uint      `gorm:"not null;index"`

	Capacity int    `gorm:"not null"`
	Status   string `gorm:"not null;default:upcoming"`
	Approved bool   `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// openForRegistration mirrors domain.Event.IsOpenForRegistration at the
// storage layer, where the confirmation decision is actually made.
func (e *Event) openForRegistration() bool {
	return e.Approved && (e.Status == eventStatusUpcoming || e.Status == eventStatusOngoing)
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Order("starts_at ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) Approve(ctx context.Context, id uint) (Event, error) {
	result := d.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Update("approved", true)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, id)
}

func (d *EventDAO) UpdateStatus(ctx context.Context, id uint, status string) (Event, error) {
	result := d.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, id)
}

// lockEvent acquires the row-level lock that serializes all capacity changes
// for one event. Every reserve/release/promote path must go through it.
func lockEvent(tx *gorm.DB, eventID uint) (Event, error) {
	var event Event

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// promoteWaitlist walks waitlisted registrations in arrival order and
// confirms each one that still fits in event.Capacity, stopping at the first
// that does not. Strict FIFO: a later, smaller entry never jumps ahead of an
// earlier, larger one. The caller must hold the event row lock and is
// responsible for persisting the updated capacity.
func promoteWaitlist(tx *gorm.DB, event *Event) ([]Registration, error) {
	var waiting []Registration
	err := tx.
		Where("event_id = ? AND status = ?", event.ID, registrationStatusWaitlisted).
		Order("id ASC").
		Find(&waiting).Error
	if err != nil {
		return nil, err
	}

	var promoted []Registration
	for _, reg := range waiting {
		if event.Capacity < reg.Quantity {
			break
		}

		err = tx.Model(&Registration{}).
			Where("id = ?", reg.ID).
			Update("status", registrationStatusConfirmed).Error
		if err != nil {
			return nil, err
		}

		event.Capacity -= reg.Quantity
		reg.Status = registrationStatusConfirmed
		promoted = append(promoted, reg)
	}

	return promoted, nil
}

func saveCapacity(tx *gorm.DB, event *Event) error {
	return tx.Model(&Event{}).Where("id = ?", event.ID).Update("capacity", event.Capacity).Error
}
