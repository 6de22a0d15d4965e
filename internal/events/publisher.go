package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/redis/go-redis/v9"
)

const TypeAssetCommitted = "asset.committed"

type RedisPublisher struct {
	client *redis.Client
}

// compile-time check: *RedisPublisher must satisfy port.EventPublisher
var _ port.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(addr, password string) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &RedisPublisher{client: rdb}
}

func (p *RedisPublisher) PublishAssetCommitted(ctx context.Context, ev model.AssetEvent) error {
	if ev.Type == "" {
		ev.Type = TypeAssetCommitted
	}
	channel := Channel(ev.Collection, ev.EntityID)
	if ev.ParentID != "" {
		channel = Channel(ev.ParentCollection, ev.ParentID)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	n, err := p.client.Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	logger.Debugf(ctx, "published %s on %s to %d subscriber(s)", ev.Type, channel, n)
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Channel is the pub/sub channel carrying events for one entity.
func Channel(collection, id string) string {
	return "skillswap:" + collection + ":" + id
}
