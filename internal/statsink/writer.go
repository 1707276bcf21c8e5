package statsink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Writer stores a batch of keys, each expiring after ttl.
type Writer interface {
	Write(ctx context.Context, values map[string][]byte, ttl time.Duration) error
	Close() error
}

// RedisWriter writes batches through a single pipeline so readers never see
// statistics from one cycle next to a snapshot from another.
type RedisWriter struct {
	client *redis.Client
}

func NewRedisWriter(cfg SinkConfig) *RedisWriter {
	return &RedisWriter{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (w *RedisWriter) Write(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	pipe := w.client.TxPipeline()
	for key, v := range values {
		pipe.Set(ctx, key, v, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write %d keys to redis: %w", len(values), err)
	}
	return nil
}

// Ping checks connectivity.
func (w *RedisWriter) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}

func (w *RedisWriter) Close() error {
	return w.client.Close()
}
