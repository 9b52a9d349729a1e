package service

import (
	"context"
	"testing"

	"plombir/catalog"
	"plombir/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestFarmService(t *testing.T, m *testMocks) FarmService {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewFarmService(m.factory, c)
}

func TestFarmService_BuyAnimal(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectCommit(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("AddAnimal", ctx, int64(1), "chicken").Return(int64(77), nil)
	m.users.On("DeductBalance", ctx, int64(1), int64(500)).Return(int64(100), nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.BalanceBefore == 600 &&
			h.BalanceAfter == 100 &&
			h.TransactionType == models.TransactionTypeAnimalPurchase &&
			*h.RelatedID == 77 &&
			*h.RelatedType == models.RelatedTypeUserFarm
	})).Return(nil)

	require.NoError(t, service.BuyAnimal(ctx, 1, "chicken"))
	m.assertAll(t)
}

func TestFarmService_BuyAnimal_UnknownKey(t *testing.T) {
	m := newTestMocks()
	service := newTestFarmService(t, m)

	err := service.BuyAnimal(context.Background(), 1, "kraken")

	assert.ErrorIs(t, err, ErrUnknownAnimal)
	assert.Equal(t, "Invalid animal", PublicMessage(err))
	m.factory.AssertNotCalled(t, "Create")
}

func TestFarmService_BuyAnimal_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectReadOnly(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("AddAnimal", ctx, int64(1), "dragon").Return(int64(1), nil)
	m.users.On("DeductBalance", ctx, int64(1), int64(2000000)).Return(int64(0), insufficientFunds(10, 2000000))

	err := service.BuyAnimal(ctx, 1, "dragon")

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestFarmService_BuyProtection(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectCommit(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("HasProtection", ctx, int64(1), "dog").Return(false, nil)
	m.users.On("DeductBalance", ctx, int64(1), int64(15000)).Return(int64(5000), nil)
	m.expectHistory(ctx, 1, 20000, 5000, models.TransactionTypeProtectionBuy)
	m.farm.On("AddProtection", ctx, int64(1), "dog").Return(true, nil)

	require.NoError(t, service.BuyProtection(ctx, 1, "dog"))
	m.assertAll(t)
}

func TestFarmService_BuyProtection_AlreadyOwned(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectReadOnly(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("HasProtection", ctx, int64(1), "dog").Return(true, nil)

	err := service.BuyProtection(ctx, 1, "dog")

	assert.ErrorIs(t, err, ErrAlreadyOwned)
	m.users.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestFarmService_BuyProtection_ConcurrentPurchase(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectReadOnly(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("HasProtection", ctx, int64(1), "guard").Return(false, nil)
	m.users.On("DeductBalance", ctx, int64(1), int64(150000)).Return(int64(0), nil)
	m.expectHistory(ctx, 1, 150000, 0, models.TransactionTypeProtectionBuy)
	m.farm.On("AddProtection", ctx, int64(1), "guard").Return(false, nil)

	err := service.BuyProtection(ctx, 1, "guard")

	assert.ErrorIs(t, err, ErrAlreadyOwned)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestFarmService_BuyProtection_UnknownItem(t *testing.T) {
	m := newTestMocks()
	service := newTestFarmService(t, m)

	err := service.BuyProtection(context.Background(), 1, "moat")

	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestFarmService_GetFarm(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectReadOnly(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("CountAnimals", ctx, int64(1)).Return([]*models.AnimalCount{
		{AnimalKey: "cow", Count: 2},
		{AnimalKey: "retired", Count: 1},
	}, nil)
	m.farm.On("ListProtection", ctx, int64(1)).Return([]*models.OwnedProtection{
		{ItemKey: "scarecrow"},
	}, nil)

	farm, err := service.GetFarm(ctx, 1)

	require.NoError(t, err)
	require.Len(t, farm.Animals, 2)
	assert.Equal(t, "cow", farm.Animals[0].Key)
	assert.Equal(t, int64(50000), farm.Animals[0].Price)
	assert.Equal(t, int64(2), farm.Animals[0].Count)
	assert.Equal(t, "retired", farm.Animals[1].Key)
	require.Len(t, farm.Protection, 1)
	assert.Equal(t, 0.05, farm.Protection[0].Bonus)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestFarmService_GetFarm_Empty(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.expectReadOnly(ctx)
	service := newTestFarmService(t, m)

	m.farm.On("CountAnimals", ctx, int64(1)).Return(nil, nil)
	m.farm.On("ListProtection", ctx, int64(1)).Return(nil, nil)

	farm, err := service.GetFarm(ctx, 1)

	require.NoError(t, err)
	assert.NotNil(t, farm.Animals)
	assert.Empty(t, farm.Animals)
	assert.NotNil(t, farm.Protection)
}
