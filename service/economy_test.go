package service

import (
	"context"
	"errors"
	"testing"

	"plombir/events"
	"plombir/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebit_RecordsHistoryAndEvent(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	m.users.On("DeductBalance", ctx, int64(1), int64(500)).Return(int64(700), nil)
	m.expectHistory(ctx, 1, 1200, 700, models.TransactionTypeAnimalPurchase)

	balance, err := Debit(ctx, m.uow, BalanceChange{
		UserID: 1,
		Amount: 500,
		Type:   models.TransactionTypeAnimalPurchase,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	published := m.eventsOfType(events.EventTypeBalanceChange)
	require.Len(t, published, 1)
	change := published[0].(events.BalanceChangeEvent)
	assert.Equal(t, int64(1200), change.OldBalance)
	assert.Equal(t, int64(700), change.NewBalance)
	assert.Equal(t, int64(-500), change.ChangeAmount)

	m.assertAll(t)
}

func TestDebit_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	m.users.On("DeductBalance", ctx, int64(1), int64(500)).Return(int64(0), insufficientFunds(100, 500))

	_, err := Debit(ctx, m.uow, BalanceChange{UserID: 1, Amount: 500, Type: models.TransactionTypeAnimalPurchase})

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "Not enough points", PublicMessage(err))
	m.history.AssertNotCalled(t, "Record")
	assert.Empty(t, m.uow.Published())
}

func TestDebitAndCredit_RejectNegativeAndSkipZero(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	_, err := Debit(ctx, m.uow, BalanceChange{UserID: 1, Amount: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Credit(ctx, m.uow, BalanceChange{UserID: 1, Amount: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Debit(ctx, m.uow, BalanceChange{UserID: 1, Amount: 0})
	assert.NoError(t, err)
	_, err = Credit(ctx, m.uow, BalanceChange{UserID: 1, Amount: 0})
	assert.NoError(t, err)

	m.users.AssertNotCalled(t, "DeductBalance")
	m.users.AssertNotCalled(t, "AddBalance")
	m.history.AssertNotCalled(t, "Record")
}

func TestCredit_HistoryFailure(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	m.users.On("AddBalance", ctx, int64(1), int64(10)).Return(int64(110), nil)
	m.history.On("Record", ctx, &models.BalanceHistory{
		UserID:          1,
		BalanceBefore:   100,
		BalanceAfter:    110,
		ChangeAmount:    10,
		TransactionType: models.TransactionTypeDiceReward,
	}).Return(errors.New("db down"))

	_, err := Credit(ctx, m.uow, BalanceChange{UserID: 1, Amount: 10, Type: models.TransactionTypeDiceReward})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record balance history")
	assert.Empty(t, m.uow.Published())
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	m.users.On("DeductBalance", ctx, int64(1), int64(30)).Return(int64(70), nil)
	m.users.On("AddBalance", ctx, int64(2), int64(30)).Return(int64(130), nil)
	m.expectHistory(ctx, 1, 100, 70, models.TransactionTypeTransferOut)
	m.expectHistory(ctx, 2, 100, 130, models.TransactionTypeTransferIn)

	err := Transfer(ctx, m.uow, 1, 2, 30, map[string]any{"reason": "gift"})

	require.NoError(t, err)
	assert.Len(t, m.eventsOfType(events.EventTypeBalanceChange), 2)
	m.assertAll(t)
}

func TestTransfer_ToSelfIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	require.NoError(t, Transfer(ctx, m.uow, 1, 1, 30, nil))

	m.users.AssertNotCalled(t, "DeductBalance")
	m.users.AssertNotCalled(t, "AddBalance")
}

func TestTransfer_DebitFailureStopsCredit(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()

	m.users.On("DeductBalance", ctx, int64(1), int64(30)).Return(int64(0), insufficientFunds(10, 30))

	err := Transfer(ctx, m.uow, 1, 2, 30, nil)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	m.users.AssertNotCalled(t, "AddBalance")
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Minimum bet is 10", PublicMessage(ErrInvalidBet))
	assert.Equal(t, "Battle not available", PublicMessage(ErrOfferUnavailable))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("connection refused")))
	assert.True(t, errors.Is(ErrDiceCooldown, ErrConflict))
	assert.True(t, errors.Is(ErrNotAdmin, ErrForbidden))
}
