package events

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

type NoopPublisher struct{}

// compile-time check: *NoopPublisher must satisfy port.EventPublisher
var _ port.EventPublisher = (*NoopPublisher)(nil)

func NewNoop() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) PublishAssetCommitted(ctx context.Context, ev model.AssetEvent) error {
	return nil
}
