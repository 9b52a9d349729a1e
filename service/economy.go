package service

import (
	"context"
	"fmt"

	"plombir/events"
	"plombir/models"
)

// BalanceChange describes one rating movement for a single user
type BalanceChange struct {
	UserID      int64
	Amount      int64
	Type        models.TransactionType
	Metadata    map[string]any
	RelatedID   *int64
	RelatedType *models.RelatedType
}

// Debit removes Amount from the user's rating inside uow. It fails with
// ErrInsufficientFunds without touching the row when the balance is too low.
func Debit(ctx context.Context, uow UnitOfWork, change BalanceChange) (int64, error) {
	if change.Amount < 0 {
		return 0, ErrInvalidAmount
	}
	if change.Amount == 0 {
		return 0, nil
	}

	newBalance, err := uow.UserRepository().DeductBalance(ctx, change.UserID, change.Amount)
	if err != nil {
		return 0, err
	}

	history := change.history(newBalance+change.Amount, newBalance, -change.Amount)
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit adds Amount to the user's rating inside uow
func Credit(ctx context.Context, uow UnitOfWork, change BalanceChange) (int64, error) {
	if change.Amount < 0 {
		return 0, ErrInvalidAmount
	}
	if change.Amount == 0 {
		return 0, nil
	}

	newBalance, err := uow.UserRepository().AddBalance(ctx, change.UserID, change.Amount)
	if err != nil {
		return 0, err
	}

	history := change.history(newBalance-change.Amount, newBalance, change.Amount)
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Transfer debits fromID and credits toID inside the same unit of work.
// A transfer to oneself is a no-op.
func Transfer(ctx context.Context, uow UnitOfWork, fromID, toID, amount int64, metadata map[string]any) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if fromID == toID || amount == 0 {
		return nil
	}

	outMeta := map[string]any{"recipient_id": toID}
	inMeta := map[string]any{"sender_id": fromID}
	for k, v := range metadata {
		outMeta[k] = v
		inMeta[k] = v
	}

	if _, err := Debit(ctx, uow, BalanceChange{
		UserID:   fromID,
		Amount:   amount,
		Type:     models.TransactionTypeTransferOut,
		Metadata: outMeta,
	}); err != nil {
		return fmt.Errorf("failed to debit sender: %w", err)
	}

	if _, err := Credit(ctx, uow, BalanceChange{
		UserID:   toID,
		Amount:   amount,
		Type:     models.TransactionTypeTransferIn,
		Metadata: inMeta,
	}); err != nil {
		return fmt.Errorf("failed to credit recipient: %w", err)
	}

	return nil
}

func (c BalanceChange) history(before, after, delta int64) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:              c.UserID,
		BalanceBefore:       before,
		BalanceAfter:        after,
		ChangeAmount:        delta,
		TransactionType:     c.Type,
		TransactionMetadata: c.Metadata,
		RelatedID:           c.RelatedID,
		RelatedType:         c.RelatedType,
	}
}

// RecordBalanceChange records a balance history entry and emits appropriate events.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// Flushed after the transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

// relatedTo is a small helper for filling BalanceChange.RelatedID/RelatedType
func relatedTo(id int64, kind models.RelatedType) (*int64, *models.RelatedType) {
	return &id, &kind
}
