// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dekaustubh/matchpoint/internal/match"
)

// DefaultQueueName is the Redis list every successful match transition is
// pushed onto, for downstream consumers (history, analytics).
var DefaultQueueName = "matchpoint_events"

// Queue is a Redis-backed implementation of match.Feed.
type Queue struct {
	client *redis.Client
	name   string
}

// ConnectQueue initializes the Redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - EVENT_QUEUE_NAME (optional, default DefaultQueueName)
func ConnectQueue() (*Queue, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Queue{client: client, name: getEnv("EVENT_QUEUE_NAME", DefaultQueueName)}, nil
}

// Publish serializes the record to JSON and pushes it onto the queue. This is
// a quick network send, nothing more; consumers drain the list at their own
// pace.
func (q *Queue) Publish(ctx context.Context, record match.FeedRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal feed record: %w", err)
	}
	if err := q.client.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
