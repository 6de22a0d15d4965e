package port

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// TaskDispatcher schedules background work.
type TaskDispatcher interface {
	EnqueueDeleteAsset(ctx context.Context, ref model.AssetRef) error
}
