package bus

import (
	"context"
	"io"
	"log"
)

// ActivityMessage represents a viewer action published to the activity stream
type ActivityMessage struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	Caso      string `json:"caso,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Bus defines the interface for activity bus implementations
type Bus interface {
	// PublishActivity publishes a viewer action to the activity stream
	PublishActivity(ctx context.Context, msg ActivityMessage) error

	// GetStats returns basic statistics about the bus
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// HealthCheck performs a health check on the bus connection
	HealthCheck(ctx context.Context) error

	// Close closes the bus connection
	Close() error
}

// NewBus creates a new bus instance based on the Redis URL
// If redisURL is empty or invalid, returns a NullBus
func NewBus(redisURL string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if redisURL == "" {
		return NewNullBus(logger)
	}

	if redisBus, err := NewRedisBus(redisURL, logger); err == nil {
		return redisBus
	}

	// Fall back to null bus if Redis fails
	return NewNullBus(logger)
}
