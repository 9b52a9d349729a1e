package service

import (
	"context"
	"fmt"
	"time"

	"plombir/events"
	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// pvpService implements the PvPService interface
type pvpService struct {
	uowFactory UnitOfWorkFactory
	roller     DiceRoller
	now        func() time.Time
}

// NewPvPService creates a new duel service
func NewPvPService(uowFactory UnitOfWorkFactory, roller DiceRoller) PvPService {
	return &pvpService{
		uowFactory: uowFactory,
		roller:     roller,
		now:        time.Now,
	}
}

// CreateOffer withholds the stake from the challenger and posts a pending offer
func (s *pvpService) CreateOffer(ctx context.Context, challengerID int64, bet int64) (*models.PvPBattle, error) {
	if bet < models.MinimumBet {
		return nil, ErrInvalidBet
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	battle := &models.PvPBattle{
		ChallengerID: challengerID,
		Bet:          bet,
		Status:       models.BattleStatusPending,
	}
	if err := uow.PvPRepository().Create(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	relatedID, relatedType := relatedTo(battle.BattleID, models.RelatedTypePvPBattle)
	if _, err := Debit(ctx, uow, BalanceChange{
		UserID:      challengerID,
		Amount:      bet,
		Type:        models.TransactionTypePvPEscrow,
		Metadata:    map[string]any{"battle_id": battle.BattleID},
		RelatedID:   relatedID,
		RelatedType: relatedType,
	}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.OfferCreatedEvent{
		BattleID:     battle.BattleID,
		ChallengerID: challengerID,
		Bet:          bet,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"battleID":     battle.BattleID,
		"challengerID": challengerID,
		"bet":          bet,
	}).Info("Duel offer created")

	return battle, nil
}

// ListOffers returns pending offers, newest first
func (s *pvpService) ListOffers(ctx context.Context) ([]*models.PvPOffer, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	offers, err := uow.PvPRepository().ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// AcceptOffer resolves a pending duel against acceptorID and settles balances
func (s *pvpService) AcceptOffer(ctx context.Context, acceptorID int64, battleID int64) (*models.DuelResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	battle, err := uow.PvPRepository().GetByIDForUpdate(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if battle == nil || !battle.IsPending() {
		return nil, ErrOfferUnavailable
	}
	if !battle.CanBeAcceptedBy(acceptorID) {
		return nil, ErrSelfAcceptance
	}

	acceptor, err := uow.UserRepository().GetByID(ctx, acceptorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load acceptor: %w", err)
	}
	if acceptor == nil {
		return nil, ErrUserNotFound
	}
	if acceptor.Rating < battle.Bet {
		return nil, insufficientFunds(acceptor.Rating, battle.Bet)
	}

	challengerRoll := s.roller.Roll()
	acceptorRoll := s.roller.Roll()
	settlement := models.SettleDuel(battle.Bet, challengerRoll, acceptorRoll)

	finishedAt := s.now()
	battle.OpponentID = &acceptorID
	battle.ChallengerRoll = &challengerRoll
	battle.OpponentRoll = &acceptorRoll
	battle.Status = models.BattleStatusFinished
	battle.FinishedAt = &finishedAt
	switch settlement.Outcome {
	case models.DuelOutcomeChallengerWins:
		battle.WinnerID = &battle.ChallengerID
	case models.DuelOutcomeAcceptorWins:
		battle.WinnerID = &acceptorID
	}

	finished, err := uow.PvPRepository().Finish(ctx, battle)
	if err != nil {
		return nil, fmt.Errorf("failed to finish offer: %w", err)
	}
	if !finished {
		return nil, ErrOfferUnavailable
	}

	if err := s.applySettlement(ctx, uow, battle, acceptorID, settlement); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.DuelFinishedEvent{
		BattleID:       battle.BattleID,
		ChallengerID:   battle.ChallengerID,
		AcceptorID:     acceptorID,
		Bet:            battle.Bet,
		ChallengerRoll: challengerRoll,
		AcceptorRoll:   acceptorRoll,
		Outcome:        settlement.Outcome,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := &models.DuelResult{
		BattleID:       battle.BattleID,
		Winner:         settlement.Outcome == models.DuelOutcomeAcceptorWins,
		Message:        settlement.Message(battle.Bet),
		Outcome:        settlement.Outcome,
		ChallengerRoll: challengerRoll,
		OpponentRoll:   acceptorRoll,
		Delta:          settlement.AcceptorCredit - settlement.AcceptorDebit,
	}

	log.WithFields(log.Fields{
		"battleID":       battle.BattleID,
		"challengerID":   battle.ChallengerID,
		"acceptorID":     acceptorID,
		"challengerRoll": challengerRoll,
		"acceptorRoll":   acceptorRoll,
		"outcome":        settlement.Outcome,
	}).Info("Duel settled")

	return result, nil
}

func (s *pvpService) applySettlement(ctx context.Context, uow UnitOfWork, battle *models.PvPBattle, acceptorID int64, settlement models.DuelSettlement) error {
	relatedID, relatedType := relatedTo(battle.BattleID, models.RelatedTypePvPBattle)
	meta := map[string]any{
		"battle_id":       battle.BattleID,
		"challenger_roll": *battle.ChallengerRoll,
		"acceptor_roll":   *battle.OpponentRoll,
	}

	if settlement.AcceptorDebit > 0 {
		if _, err := Debit(ctx, uow, BalanceChange{
			UserID: acceptorID, Amount: settlement.AcceptorDebit, Type: models.TransactionTypePvPLoss,
			Metadata: meta, RelatedID: relatedID, RelatedType: relatedType,
		}); err != nil {
			return err
		}
	}

	if settlement.ChallengerCredit > 0 {
		txType := models.TransactionTypePvPWin
		if settlement.Outcome == models.DuelOutcomeDraw {
			txType = models.TransactionTypePvPRefund
		}
		if _, err := Credit(ctx, uow, BalanceChange{
			UserID: battle.ChallengerID, Amount: settlement.ChallengerCredit, Type: txType,
			Metadata: meta, RelatedID: relatedID, RelatedType: relatedType,
		}); err != nil {
			return fmt.Errorf("failed to credit challenger: %w", err)
		}
	}

	if settlement.AcceptorCredit > 0 {
		if _, err := Credit(ctx, uow, BalanceChange{
			UserID: acceptorID, Amount: settlement.AcceptorCredit, Type: models.TransactionTypePvPWin,
			Metadata: meta, RelatedID: relatedID, RelatedType: relatedType,
		}); err != nil {
			return fmt.Errorf("failed to credit acceptor: %w", err)
		}
	}

	draw := settlement.Outcome == models.DuelOutcomeDraw
	challengerWon := settlement.Outcome == models.DuelOutcomeChallengerWins
	acceptorWon := settlement.Outcome == models.DuelOutcomeAcceptorWins

	if err := uow.PvPRepository().RecordOutcome(ctx, battle.ChallengerID, challengerWon, acceptorWon, draw); err != nil {
		return fmt.Errorf("failed to update challenger stats: %w", err)
	}
	if err := uow.PvPRepository().RecordOutcome(ctx, acceptorID, acceptorWon, challengerWon, draw); err != nil {
		return fmt.Errorf("failed to update acceptor stats: %w", err)
	}

	return nil
}
