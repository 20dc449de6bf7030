package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"alert-relay/pkg/config"
)

// RedisQueueConfig contains Redis Streams queue configuration.
type RedisQueueConfig struct {
	// Addr is the Redis server address
	Addr string
	// Password is the Redis password (empty for none)
	Password string
	// DB is the Redis database number
	DB int

	// Stream is the Redis stream name tasks are appended to
	Stream string
	// Group is the consumer group name
	Group string
	// Consumer is this worker's consumer name within the group
	Consumer string

	// MaxLen caps the stream length (approximate trimming)
	MaxLen int64
	// BlockTimeout is how long one XREADGROUP call blocks waiting for tasks
	BlockTimeout time.Duration
	// BatchSize is the maximum number of messages read per call
	BatchSize int64
}

// DefaultRedisQueueConfig returns default Redis queue configuration.
func DefaultRedisQueueConfig() RedisQueueConfig {
	return RedisQueueConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		Stream:       "alert-relay:tasks",
		Group:        "alert-relay-workers",
		Consumer:     "worker-1",
		MaxLen:       10000,
		BlockTimeout: 5 * time.Second,
		BatchSize:    10,
	}
}

// Validate checks the configuration for values that would break the consumer
// loop.
func (c RedisQueueConfig) Validate() error {
	if c.Stream == "" || c.Group == "" || c.Consumer == "" {
		return fmt.Errorf("stream, group and consumer must not be empty")
	}
	if err := config.ValidatePositiveDuration(c.BlockTimeout); err != nil {
		return fmt.Errorf("invalid block timeout: %w", err)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// RedisQueue is a Queue backed by a Redis stream with a consumer group.
//
// Redis Streams delivery is at-least-once: a message is re-claimable until
// acknowledged. Tasks are acknowledged after the handler returns, and
// handlers never surface errors to the driver, so a redelivery can only
// happen when a worker dies mid-attempt. That narrow duplicate window is
// accepted; the persisted outcome snapshot is self-consistent either way.
type RedisQueue struct {
	client   *redis.Client
	config   RedisQueueConfig
	registry *Registry

	// externalClient marks a client whose lifecycle the caller owns
	externalClient bool
}

// NewRedisQueue creates a Redis queue with its own client connection.
func NewRedisQueue(ctx context.Context, cfg RedisQueueConfig, registry *Registry) (*RedisQueue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis queue config: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisQueue{client: client, config: cfg, registry: registry}, nil
}

// NewRedisQueueWithClient creates a Redis queue using an existing client.
// The caller is responsible for closing the client.
func NewRedisQueueWithClient(client *redis.Client, cfg RedisQueueConfig, registry *Registry) (*RedisQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis queue config: %w", err)
	}
	return &RedisQueue{client: client, config: cfg, registry: registry, externalClient: true}, nil
}

// Enqueue implements the Queue interface by appending the serialized task to
// the stream.
func (q *RedisQueue) Enqueue(ctx context.Context, kind string, payload any) error {
	task, err := NewTask(kind, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.config.Stream,
		MaxLen: q.config.MaxLen,
		Approx: true,
		Values: map[string]any{"task": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}

	slog.Debug("task enqueued",
		slog.String("task_id", task.ID),
		slog.String("kind", task.Kind),
		slog.String("stream", q.config.Stream))
	return nil
}

// ensureGroup creates the consumer group, tolerating a pre-existing one.
func (q *RedisQueue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.config.Stream, q.config.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Run consumes the stream until ctx is canceled, dispatching each task
// through the registry and acknowledging it afterwards.
func (q *RedisQueue) Run(ctx context.Context) error {
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}

	slog.Info("redis queue consumer starting",
		slog.String("stream", q.config.Stream),
		slog.String("group", q.config.Group),
		slog.String("consumer", q.config.Consumer))

	for {
		select {
		case <-ctx.Done():
			slog.Info("redis queue consumer stopping")
			return nil
		default:
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{q.config.Stream, ">"},
			Count:    q.config.BatchSize,
			Block:    q.config.BlockTimeout,
		}).Result()
		if err == redis.Nil {
			continue // block timeout elapsed without messages
		}
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("redis queue consumer stopping")
				return nil
			}
			slog.Error("redis read failed, backing off",
				slog.String("stream", q.config.Stream),
				slog.Any("error", err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				q.handleMessage(ctx, message)
			}
		}
	}
}

// handleMessage decodes and dispatches one stream entry, then acknowledges
// it. Malformed entries are acknowledged too: redelivering them cannot make
// them parse.
func (q *RedisQueue) handleMessage(ctx context.Context, message redis.XMessage) {
	raw, ok := message.Values["task"].(string)
	if !ok {
		slog.Warn("stream entry without task field",
			slog.String("message_id", message.ID))
		q.ack(ctx, message.ID)
		return
	}

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		slog.Warn("malformed task in stream",
			slog.String("message_id", message.ID),
			slog.Any("error", err))
		q.ack(ctx, message.ID)
		return
	}

	// Dispatch and ack with a fresh context: enqueued work runs to
	// completion even while the consumer is shutting down.
	q.registry.Dispatch(context.Background(), task)
	q.ack(context.Background(), message.ID)
}

func (q *RedisQueue) ack(ctx context.Context, messageID string) {
	if err := q.client.XAck(ctx, q.config.Stream, q.config.Group, messageID).Err(); err != nil {
		slog.Error("failed to ack stream entry",
			slog.String("message_id", messageID),
			slog.Any("error", err))
	}
}

// Close releases the Redis client unless the caller owns it.
func (q *RedisQueue) Close() error {
	if q.externalClient {
		return nil
	}
	return q.client.Close()
}
