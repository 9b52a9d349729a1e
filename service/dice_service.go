package service

import (
	"context"
	"fmt"
	"time"

	"plombir/models"
)

// diceService implements the DiceService interface
type diceService struct {
	uowFactory UnitOfWorkFactory
	roller     DiceRoller
	now        func() time.Time
}

// NewDiceService creates a new daily dice service
func NewDiceService(uowFactory UnitOfWorkFactory, roller DiceRoller) DiceService {
	return &diceService{
		uowFactory: uowFactory,
		roller:     roller,
		now:        time.Now,
	}
}

// Roll throws the daily die if the cooldown has elapsed and credits the reward
func (s *diceService) Roll(ctx context.Context, userID int64) (*models.DiceRoll, error) {
	now := s.now().UTC()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	last, err := uow.DiceRepository().GetLastRoll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last roll: %w", err)
	}
	if last != nil && now.Sub(*last) < models.DiceCooldown {
		return nil, ErrDiceCooldown
	}

	// The conditional upsert closes the window between the read above and this write
	claimed, err := uow.DiceRepository().ClaimRoll(ctx, userID, now, now.Add(-models.DiceCooldown))
	if err != nil {
		return nil, fmt.Errorf("failed to store roll: %w", err)
	}
	if !claimed {
		return nil, ErrDiceCooldown
	}

	value := s.roller.Roll()
	points := models.DiceReward(value)

	if _, err := Credit(ctx, uow, BalanceChange{
		UserID:   userID,
		Amount:   points,
		Type:     models.TransactionTypeDiceReward,
		Metadata: map[string]any{"value": value},
	}); err != nil {
		return nil, fmt.Errorf("failed to credit dice reward: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.DiceRoll{Value: value, Points: points}, nil
}
