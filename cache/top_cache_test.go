package cache

import (
	"context"
	"testing"
	"time"

	"plombir/events"
	"plombir/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *TopCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
			Labels:       map[string]string{"test": "plombir-cache", "cleanup": "auto"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewClient(ctx, endpoint, "")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewTopCache(client, time.Minute)
}

func TestTopCache_RoundTrip(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := []*models.TopEntry{
		{UserID: 1, ShortID: 1, Name: "Ann", Rating: 900},
		{UserID: 2, ShortID: 2, Name: "Bob", Rating: 10},
	}
	stored, err := c.Set(ctx, entries, 0)
	require.NoError(t, err)
	assert.True(t, stored)

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entries, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTopCache_EmptyLeaderboardIsAHit(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	_, err := c.Set(ctx, []*models.TopEntry{}, 0)
	require.NoError(t, err)

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestTopCache_InvalidatedOnBalanceChange(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	bus := events.NewBus()
	c.SubscribeInvalidation(bus)

	_, err := c.Set(ctx, []*models.TopEntry{{UserID: 1, Rating: 5}}, 0)
	require.NoError(t, err)
	bus.Emit(ctx, events.BalanceChangeEvent{UserID: 1, OldBalance: 5, NewBalance: 15, ChangeAmount: 10})

	assert.Eventually(t, func() bool {
		_, ok, err := c.Get(ctx)
		return err == nil && !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestTopCache_SetSkippedAfterInvalidation(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	// A balance change lands between the generation read and the write
	require.NoError(t, c.Invalidate(ctx))

	stored, err := c.Set(ctx, []*models.TopEntry{{UserID: 1, Rating: 5}}, gen)
	require.NoError(t, err)
	assert.False(t, stored)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err = c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	stored, err = c.Set(ctx, []*models.TopEntry{{UserID: 1, Rating: 15}}, gen)
	require.NoError(t, err)
	assert.True(t, stored)
}
