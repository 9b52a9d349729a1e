package service

import (
	"context"
	"fmt"

	"plombir/events"
	"plombir/models"
)

// giveawayService implements the GiveawayService interface
type giveawayService struct {
	uowFactory UnitOfWorkFactory
}

// NewGiveawayService creates a new giveaway service
func NewGiveawayService(uowFactory UnitOfWorkFactory) GiveawayService {
	return &giveawayService{uowFactory: uowFactory}
}

// ListActive returns active giveaways with their participant counts
func (s *giveawayService) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	giveaways, err := uow.GiveawayRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	return giveaways, nil
}

// Join enters the user into a giveaway. Joining twice is not an error.
func (s *giveawayService) Join(ctx context.Context, userID int64, giveawayID int64) error {
	if giveawayID <= 0 {
		return ErrUnknownGiveaway
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	giveaway, err := uow.GiveawayRepository().GetByID(ctx, giveawayID)
	if err != nil {
		return fmt.Errorf("failed to load giveaway: %w", err)
	}
	if giveaway == nil {
		return ErrUnknownGiveaway
	}
	if !giveaway.IsActive() {
		return ErrGiveawayClosed
	}

	joined, err := uow.GiveawayRepository().AddParticipant(ctx, giveawayID, userID)
	if err != nil {
		return fmt.Errorf("failed to join giveaway: %w", err)
	}
	if joined {
		uow.EventBus().Publish(events.GiveawayJoinedEvent{GiveawayID: giveawayID, UserID: userID})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
