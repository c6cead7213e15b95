package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
)

// RedisEvents fans out subscription status changes over Redis pub/sub so
// connected dashboard sessions see status transitions without polling.
type RedisEvents struct {
	client *redis.Client
}

func NewRedisEvents(redisClient *redis.Client) *RedisEvents {
	return &RedisEvents{client: redisClient}
}

func channelForUser(userID int64) string {
	return fmt.Sprintf("subscription_updates:%d", userID)
}

func (e *RedisEvents) PublishStatus(ctx context.Context, userID int64, event models.SubscriptionEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	return e.client.Publish(ctx, channelForUser(userID), data).Err()
}

// Subscribe opens a pub/sub subscription for one user's status events. The
// caller owns the returned PubSub and must close it.
func (e *RedisEvents) Subscribe(ctx context.Context, userID int64) *redis.PubSub {
	return e.client.Subscribe(ctx, channelForUser(userID))
}
