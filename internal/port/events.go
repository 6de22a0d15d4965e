package port

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// EventPublisher notifies other services that assets were committed.
type EventPublisher interface {
	PublishAssetCommitted(ctx context.Context, ev model.AssetEvent) error
}
