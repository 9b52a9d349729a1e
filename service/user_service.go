package service

import (
	"context"
	"fmt"

	"plombir/events"
	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// Authenticate retrieves an existing user or registers a new one with the next short id
func (s *userService) Authenticate(ctx context.Context, profile models.TelegramProfile) (*models.UserView, error) {
	if profile.ID <= 0 {
		return nil, ErrInvalidInitData
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if user == nil {
		if err := uow.UserRepository().LockRegistration(ctx); err != nil {
			return nil, fmt.Errorf("failed to lock registration: %w", err)
		}

		// A concurrent request may have registered the user while we waited on the lock
		user, err = uow.UserRepository().GetByID(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-check user: %w", err)
		}
	}

	created := false
	if user == nil {
		user, err = s.register(ctx, uow, profile)
		if err != nil {
			return nil, err
		}
		created = true
	}

	view, err := uow.UserRepository().GetView(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user view: %w", err)
	}

	if created {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}

		log.WithFields(log.Fields{
			"userID":  user.UserID,
			"shortID": user.ShortID,
		}).Info("Registered new user")
	}

	return view, nil
}

func (s *userService) register(ctx context.Context, uow UnitOfWork, profile models.TelegramProfile) (*models.User, error) {
	user, err := uow.UserRepository().Create(ctx, profile, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          user.UserID,
		BalanceBefore:   0,
		BalanceAfter:    s.startingBalance,
		ChangeAmount:    s.startingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"username": profile.Username,
			"short_id": user.ShortID,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:         user.UserID,
		ShortID:        user.ShortID,
		Username:       profile.Username,
		InitialBalance: s.startingBalance,
	})

	return user, nil
}

// GetView returns the public view of an existing user
func (s *userService) GetView(ctx context.Context, userID int64) (*models.UserView, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	view, err := uow.UserRepository().GetView(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user view: %w", err)
	}
	if view == nil {
		return nil, ErrUserNotFound
	}
	return view, nil
}
