package service

import (
	"context"
	"fmt"

	"plombir/events"
	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// promoService implements the PromoService interface
type promoService struct {
	uowFactory UnitOfWorkFactory
}

// NewPromoService creates a new promo service
func NewPromoService(uowFactory UnitOfWorkFactory) PromoService {
	return &promoService{uowFactory: uowFactory}
}

// Activate redeems a promo code once per user and returns the credited reward
func (s *promoService) Activate(ctx context.Context, userID int64, rawCode string) (int64, error) {
	code := models.CanonicalPromoCode(rawCode)
	if code == "" {
		return 0, ErrPromoNotFound
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The row lock serializes redemptions so the usage cap cannot be overshot
	promo, err := uow.PromoRepository().GetByCodeForUpdate(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("failed to load promo code: %w", err)
	}
	if promo == nil {
		return 0, ErrPromoNotFound
	}
	if promo.IsExhausted() {
		return 0, ErrPromoExhausted
	}

	used, err := uow.PromoRepository().HasRedeemed(ctx, userID, code)
	if err != nil {
		return 0, fmt.Errorf("failed to check promo history: %w", err)
	}
	if used {
		return 0, ErrPromoAlreadyUsed
	}

	if err := uow.PromoRepository().IncrementUses(ctx, code); err != nil {
		return 0, fmt.Errorf("failed to increment promo usage: %w", err)
	}
	if err := uow.PromoRepository().RecordRedemption(ctx, userID, code); err != nil {
		return 0, fmt.Errorf("failed to record promo redemption: %w", err)
	}

	if _, err := Credit(ctx, uow, BalanceChange{
		UserID:   userID,
		Amount:   promo.Reward,
		Type:     models.TransactionTypePromoReward,
		Metadata: map[string]any{"code": code},
	}); err != nil {
		return 0, fmt.Errorf("failed to credit promo reward: %w", err)
	}

	uow.EventBus().Publish(events.PromoRedeemedEvent{UserID: userID, Code: code, Reward: promo.Reward})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"code":   code,
		"reward": promo.Reward,
	}).Info("Promo code redeemed")

	return promo.Reward, nil
}
