package repository

import (
	"context"
	"testing"

	"plombir/catalog"
	"plombir/events"
	"plombir/models"
	"plombir/repository/testutil"
	"plombir/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTaskRepository(testDB.DB)
	ctx := context.Background()

	testutil.CreateTestUser(t, testDB.DB, 1, 0)
	subscribe := testutil.CreateTestTask(t, testDB.DB, "Subscribe", 50)
	repost := testutil.CreateTestTask(t, testDB.DB, "Repost", 20)
	invite := testutil.CreateTestTask(t, testDB.DB, "Invite", 100)

	require.NoError(t, repo.MarkPending(ctx, 1, repost.ID))
	testutil.CompleteTestTask(t, testDB.DB, 1, invite.ID)

	// Starting a completed task does not reopen it
	require.NoError(t, repo.MarkPending(ctx, 1, invite.ID))

	tasks, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, subscribe.ID, tasks[0].ID)
	assert.Equal(t, models.TaskStatusAvailable, tasks[0].Status)
	assert.Equal(t, repost.ID, tasks[1].ID)
	assert.Equal(t, models.TaskStatusPending, tasks[1].Status)

	task, err := repo.GetByID(ctx, subscribe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Subscribe", task.Title)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFarmFlow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	testutil.CreateTestUser(t, testDB.DB, 1, 2000)

	c, err := catalog.Default()
	require.NoError(t, err)
	farms := service.NewFarmService(NewUnitOfWorkFactory(testDB.DB, events.NewBus()), c)

	require.NoError(t, farms.BuyAnimal(ctx, 1, "chicken"))
	require.NoError(t, farms.BuyAnimal(ctx, 1, "chicken"))
	require.NoError(t, farms.BuyProtection(ctx, 1, "scarecrow"))
	assert.Equal(t, int64(0), testutil.GetRating(t, testDB.DB, 1))

	err = farms.BuyAnimal(ctx, 1, "chicken")
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	farm, err := farms.GetFarm(ctx, 1)
	require.NoError(t, err)
	require.Len(t, farm.Animals, 1)
	assert.Equal(t, int64(2), farm.Animals[0].Count)
	require.Len(t, farm.Protection, 1)
	assert.Equal(t, "scarecrow", farm.Protection[0].Key)

	// The failed purchase left no animal behind
	counts, err := NewFarmRepository(testDB.DB).CountAnimals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[0].Count)
}

func TestFarmRepository_ProtectionOwnedOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewFarmRepository(testDB.DB)
	ctx := context.Background()

	testutil.CreateTestUser(t, testDB.DB, 1, 0)

	inserted, err := repo.AddProtection(ctx, 1, "dog")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.AddProtection(ctx, 1, "dog")
	require.NoError(t, err)
	assert.False(t, inserted)

	owned, err := repo.HasProtection(ctx, 1, "dog")
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestGiveawayRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewGiveawayRepository(testDB.DB)
	ctx := context.Background()

	testutil.CreateTestUser(t, testDB.DB, 1, 0)
	testutil.CreateTestUser(t, testDB.DB, 2, 0)
	active := testutil.CreateTestGiveaway(t, testDB.DB, "Summer", models.GiveawayStatusActive)
	testutil.CreateTestGiveaway(t, testDB.DB, "Spring", models.GiveawayStatusFinished)

	joined, err := repo.AddParticipant(ctx, active.ID, 1)
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = repo.AddParticipant(ctx, active.ID, 1)
	require.NoError(t, err)
	assert.False(t, joined)

	_, err = repo.AddParticipant(ctx, active.ID, 2)
	require.NoError(t, err)

	list, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Summer", list[0].Title)
	assert.Equal(t, int64(2), list[0].Participants)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUnitOfWork_EventsOnlyAfterCommit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	testutil.CreateTestUser(t, testDB.DB, 1, 0)

	bus := events.NewBus()
	received := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypeBalanceChange, func(_ context.Context, e events.Event) {
		received <- e
	})
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	// Rolled back: nothing is persisted or emitted
	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := service.Credit(ctx, uow, service.BalanceChange{UserID: 1, Amount: 10, Type: models.TransactionTypePromoReward})
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())
	assert.Equal(t, int64(0), testutil.GetRating(t, testDB.DB, 1))

	// Committed: the balance moves and subscribers hear about it
	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err = service.Credit(ctx, uow, service.BalanceChange{UserID: 1, Amount: 10, Type: models.TransactionTypePromoReward})
	require.NoError(t, err)
	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback())

	e := <-received
	change := e.(events.BalanceChangeEvent)
	assert.Equal(t, int64(10), change.NewBalance)
	assert.Len(t, received, 0)
	assert.Equal(t, int64(10), testutil.GetRating(t, testDB.DB, 1))

	entries, err := NewBalanceHistoryRepository(testDB.DB).GetByUser(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
