package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/fhuszti/skillswap-media-ms/internal/assets"
	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/fhuszti/skillswap-media-ms/internal/task"
	"github.com/hibiken/asynq"
)

// DeleteAssetHandler removes a superseded asset from its provider. Errors are
// returned for asynq to retry, except for unknown providers.
func DeleteAssetHandler(ctx context.Context, p task.DeleteAssetPayload, svc port.AssetDestroyer) error {
	ref := p.Asset
	if err := svc.Destroy(ctx, ref); err != nil {
		if errors.Is(err, assets.ErrUnknownProvider) {
			logger.Errorf(ctx, "❌  Dropping deletion of %s/%s: %v", ref.Provider, ref.ProviderID, err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		logger.Warnf(ctx, "⚠️  Failed to delete asset %s/%s, will retry: %v", ref.Provider, ref.ProviderID, err)
		return err
	}

	logger.Infof(ctx, "✅  Deleted superseded asset %s/%s", ref.Provider, ref.ProviderID)
	return nil
}
