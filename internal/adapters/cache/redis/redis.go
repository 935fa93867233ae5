package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/redis/go-redis/v9"
)

// Cache is the redis implementation of port.Cache
type Cache struct {
	client *redis.Client
	db     int
	logger *slog.Logger
}

// NewClient creates a redis client and checks the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewCache returns a Cache on db of client
func NewCache(client *redis.Client, db int, logger *slog.Logger) port.Cache {
	return &Cache{client: client, db: db, logger: logger}
}

func (c *Cache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// AddToSet runs SADD and EXPIRE in one MULTI
func (c *Cache) AddToSet(ctx context.Context, key string, member string, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, member)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Cache) SetSize(ctx context.Context, key string) (int64, bool, error) {
	pipe := c.client.Pipeline()
	exists := pipe.Exists(ctx, key)
	size := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, err
	}
	if exists.Val() == 0 {
		return 0, false, nil
	}
	return size.Val(), true, nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// ExpiredKeys subscribes to keyspace expiry notifications of the cache db.
// The channel is closed when ctx is done.
func (c *Cache) ExpiredKeys(ctx context.Context) (<-chan string, error) {
	if err := c.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		// CONFIG is disabled on most managed redis, where notifications are set server side
		c.logger.Warn("could not enable keyspace notifications", "error", err)
	}

	pubsub := c.client.Subscribe(ctx, fmt.Sprintf("__keyevent@%d__:expired", c.db))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to expired keys: %w", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
