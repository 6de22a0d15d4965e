package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/redis/go-redis/v9"
)

func makeTestPublisher(t *testing.T) (*RedisPublisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = sub.Close() })
	p := NewRedisPublisher(mr.Addr(), "")
	t.Cleanup(func() { _ = p.Close() })
	return p, sub
}

func receive(t *testing.T, sub *redis.Client, channel string, publish func()) *redis.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ps := sub.Subscribe(ctx, channel)
	defer func() { _ = ps.Close() }()
	if _, err := ps.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	publish()

	msg, err := ps.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	return msg
}

func TestPublishAssetCommitted_EntityChannel(t *testing.T) {
	p, sub := makeTestPublisher(t)
	ev := model.AssetEvent{
		Profile:    "user-avatar",
		Collection: "users",
		EntityID:   "u1",
		ActorID:    "u1",
		Assets:     []model.AssetRef{{CanonicalURL: "https://cdn/a.webp", ProviderID: "a", Provider: "cloudinary"}},
	}

	msg := receive(t, sub, "skillswap:users:u1", func() {
		if err := p.PublishAssetCommitted(context.Background(), ev); err != nil {
			t.Fatalf("PublishAssetCommitted: %v", err)
		}
	})

	var got model.AssetEvent
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("invalid JSON payload: %v", err)
	}
	if got.Type != TypeAssetCommitted || got.EntityID != "u1" || len(got.Assets) != 1 {
		t.Errorf("event = %+v", got)
	}
}

func TestPublishAssetCommitted_ParentChannel(t *testing.T) {
	p, sub := makeTestPublisher(t)
	ev := model.AssetEvent{Collection: "messages", EntityID: "m1", ParentCollection: "chats", ParentID: "c1"}

	msg := receive(t, sub, "skillswap:chats:c1", func() {
		if err := p.PublishAssetCommitted(context.Background(), ev); err != nil {
			t.Fatalf("PublishAssetCommitted: %v", err)
		}
	})
	if msg.Channel != "skillswap:chats:c1" {
		t.Errorf("channel = %q", msg.Channel)
	}
}

func TestPublishAssetCommitted_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	p := NewRedisPublisher(mr.Addr(), "")
	defer func() { _ = p.Close() }()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.PublishAssetCommitted(ctx, model.AssetEvent{Collection: "users", EntityID: "u1"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := NewNoop().PublishAssetCommitted(context.Background(), model.AssetEvent{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
