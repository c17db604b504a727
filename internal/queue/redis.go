// Package queue implements the crawl frontier on a Redis list.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/masahif/pwascout/internal/config"
	"github.com/masahif/pwascout/internal/crawler"
)

// ErrEmptyAddress is returned when no Redis address is configured
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout bounds the ping made by NewClient
const connectionTimeout = 5 * time.Second

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisFrontier is a FIFO of URLs stored in one Redis list.
// New URLs go on the head with LPUSH and are taken from the tail with RPOP.
type RedisFrontier struct {
	client redis.Cmdable
	key    string
}

var _ crawler.Frontier = (*RedisFrontier)(nil)

// NewRedisFrontier returns a frontier backed by the list at key
func NewRedisFrontier(client redis.Cmdable, key string) *RedisFrontier {
	return &RedisFrontier{client: client, key: key}
}

// PushBatch appends urls in order. An empty batch is a no-op.
func (f *RedisFrontier) PushBatch(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	values := make([]any, len(urls))
	for i, u := range urls {
		values[i] = u
	}

	if err := f.client.LPush(ctx, f.key, values...).Err(); err != nil {
		return fmt.Errorf("failed to push %d URLs: %w", len(urls), err)
	}
	return nil
}

// Pop removes the oldest URL; ok is false when the list is empty
func (f *RedisFrontier) Pop(ctx context.Context) (string, bool, error) {
	u, err := f.client.RPop(ctx, f.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to pop URL: %w", err)
	}
	return u, true, nil
}

// Len returns the number of pending URLs
func (f *RedisFrontier) Len(ctx context.Context) (int64, error) {
	n, err := f.client.LLen(ctx, f.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}

// Peek returns up to n pending URLs, oldest first, without removing them
func (f *RedisFrontier) Peek(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	// The oldest entries sit at the tail of the list.
	urls, err := f.client.LRange(ctx, f.key, -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	for i, j := 0, len(urls)-1; i < j; i, j = i+1, j-1 {
		urls[i], urls[j] = urls[j], urls[i]
	}
	return urls, nil
}
