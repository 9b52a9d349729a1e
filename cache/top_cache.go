package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plombir/events"
	"plombir/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	topKey        = "plombir:leaderboard:top"
	generationKey = "plombir:leaderboard:generation"
)

var errStaleGeneration = errors.New("top cache generation changed")

// TopCache keeps the serialized leaderboard in Redis with a TTL
type TopCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}

// NewTopCache creates a leaderboard cache on an existing client
func NewTopCache(client *redis.Client, ttl time.Duration) *TopCache {
	return &TopCache{client: client, ttl: ttl}
}

// Get returns the cached leaderboard; ok is false on a miss
func (c *TopCache) Get(ctx context.Context) ([]*models.TopEntry, bool, error) {
	data, err := c.client.Get(ctx, topKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading top cache: %w", err)
	}

	var entries []*models.TopEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("decoding top cache: %w", err)
	}
	return entries, true, nil
}

// Generation returns the invalidation counter. Read it before loading the
// leaderboard from the database and hand it back to Set.
func (c *TopCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading top cache generation: %w", err)
	}
	return gen, nil
}

// Set stores the leaderboard until the TTL expires or a balance changes.
// Nothing is stored and false is returned when an invalidation happened after
// generation was read.
func (c *TopCache) Set(ctx context.Context, entries []*models.TopEntry, generation int64) (bool, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("encoding top cache: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, topKey, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("writing top cache: %w", err)
	}
}

// Invalidate drops the cached leaderboard and bumps the generation
func (c *TopCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, topKey)
		pipe.Incr(ctx, generationKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidating top cache: %w", err)
	}
	return nil
}

// SubscribeInvalidation clears the cache whenever any rating changes
func (c *TopCache) SubscribeInvalidation(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, _ events.Event) {
		if err := c.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("Failed to invalidate top cache")
		}
	})
}
