package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/repository"
)

var (
	ErrRegistrationNotFound  = repository.ErrRegistrationNotFound
	ErrAlreadyRegistered     = repository.ErrAlreadyRegistered
	ErrRegistrationCancelled = repository.ErrRegistrationCancelled
	ErrNotRegistrationOwner  = errors.New("user does not own this registration")
	ErrInvalidQuantity       = errors.New("quantity must be a positive integer")
)

type RegistrationRepository interface {
	Register(ctx context.Context, userID, eventID uint, quantity int) (domain.Registration, error)
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.Registration, error)
	Cancel(ctx context.Context, id uint) (domain.Registration, []domain.Registration, error)
	Delete(ctx context.Context, id uint) ([]domain.Registration, error)
}

type RegistrationService struct {
	repo     RegistrationRepository
	notifier Notifier
}

func NewRegistrationService(repo RegistrationRepository, notifier Notifier) *RegistrationService {
	return &RegistrationService{
		repo:     repo,
		notifier: notifier,
	}
}

// Register claims quantity seats on the event for the user. The verdict is
// decided by remaining capacity: confirmed when all requested seats fit,
// waitlisted otherwise. A request larger than the remaining capacity is never
// silently trimmed down.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID uint, quantity int) (domain.Registration, error) {
	if quantity <= 0 {
		return domain.Registration{}, ErrInvalidQuantity
	}

	reg, err := s.repo.Register(ctx, userID, eventID, quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return domain.Registration{}, ErrEventNotFound
		case errors.Is(err, repository.ErrEventNotOpen):
			return domain.Registration{}, ErrEventNotOpen
		case errors.Is(err, repository.ErrAlreadyRegistered):
			return domain.Registration{}, ErrAlreadyRegistered
		}

		return domain.Registration{}, fmt.Errorf("s.repo.Register -> %w", err)
	}

	return reg, nil
}

func (s *RegistrationService) GetRegistration(ctx context.Context, id uint, actor domain.User) (domain.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.Registration{}, ErrRegistrationNotFound
		}

		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if reg.UserID != actor.ID && !actor.IsAdmin() {
		return domain.Registration{}, ErrNotRegistrationOwner
	}

	return reg, nil
}

func (s *RegistrationService) ListByUser(ctx context.Context, userID uint) ([]domain.Registration, error) {
	regs, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return regs, nil
}

// Cancel voids the registration on behalf of its owner or an admin. Freed
// seats go back to the event's capacity exactly once; cancelling an already
// cancelled registration is rejected. Waitlist promotions triggered by the
// release are reported to the notifier.
func (s *RegistrationService) Cancel(ctx context.Context, id uint, actor domain.User) (domain.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.Registration{}, ErrRegistrationNotFound
		}

		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if reg.UserID != actor.ID && !actor.IsAdmin() {
		return domain.Registration{}, ErrNotRegistrationOwner
	}

	cancelled, promoted, err := s.repo.Cancel(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRegistrationNotFound):
			return domain.Registration{}, ErrRegistrationNotFound
		case errors.Is(err, repository.ErrRegistrationCancelled):
			return domain.Registration{}, ErrRegistrationCancelled
		}

		return domain.Registration{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	for _, promotedReg := range promoted {
		s.notifier.RegistrationPromoted(ctx, promotedReg)
	}

	return cancelled, nil
}

// Delete removes the registration row and its tickets, applying cancel
// semantics first. Reserved for admins and cascading deletions.
func (s *RegistrationService) Delete(ctx context.Context, id uint, actor domain.User) error {
	if !actor.IsAdmin() {
		return ErrNotRegistrationOwner
	}

	promoted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}

		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	for _, promotedReg := range promoted {
		s.notifier.RegistrationPromoted(ctx, promotedReg)
	}

	return nil
}
