// Package redis enqueues notifications onto a Redis list consumed by the
// notification delivery subsystem.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"certitrack/internal/notify"
)

const defaultQueueKey = "certitrack:notifications"

// Queue pushes serialized notifications with LPUSH; the delivery subsystem
// drains the list with BRPOP.
type Queue struct {
	client *redis.Client
	key    string
}

func NewQueue(client *redis.Client, key string) *Queue {
	if key == "" {
		key = defaultQueueKey
	}
	return &Queue{client: client, key: key}
}

func (q *Queue) Send(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
