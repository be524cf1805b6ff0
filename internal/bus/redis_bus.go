package bus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const activityStream = "viewer-activity"

// RedisBus publishes viewer activity over Redis Streams so external
// tooling (dashboards, audit collectors) can follow what the viewer does.
type RedisBus struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisBus creates a new Redis bus instance
func NewRedisBus(redisURL string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.New(log.Writer(), "[RedisBus] ", log.LstdFlags)
	}

	return &RedisBus{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

// PublishActivity publishes a viewer action to the activity stream
func (rb *RedisBus) PublishActivity(ctx context.Context, msg ActivityMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	fields := map[string]interface{}{
		"session_id": msg.SessionID,
		"action":     msg.Action,
		"caso":       msg.Caso,
		"timestamp":  msg.Timestamp,
	}

	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: activityStream,
		Values: fields,
	})

	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish activity: %w", err)
	}

	rb.logger.Printf("Published %s to %s stream", msg.Action, activityStream)
	return nil
}

// CleanupOldMessages removes old messages from the stream to prevent memory issues
func (rb *RedisBus) CleanupOldMessages(ctx context.Context, maxLen int64) error {
	result := rb.client.XTrimMaxLen(ctx, activityStream, maxLen)
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to trim stream %s: %w", activityStream, err)
	}

	rb.logger.Printf("Trimmed stream %s to max length %d", activityStream, maxLen)
	return nil
}

// HealthCheck performs a health check on the Redis connection
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// GetStats returns basic statistics about the activity stream
func (rb *RedisBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	if info, err := rb.client.XInfoStream(ctx, activityStream).Result(); err == nil {
		stats["activity_stream"] = map[string]interface{}{
			"length":         info.Length,
			"first_entry_id": info.FirstEntry.ID,
			"last_entry_id":  info.LastEntry.ID,
		}
	}

	return stats, nil
}
