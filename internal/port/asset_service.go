package port

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// AssetService stores staged files and returns their public references.
type AssetService interface {
	Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error)
	// Delete is best-effort: failures are logged, never returned.
	Delete(ctx context.Context, ref model.AssetRef)
}

// AssetDestroyer removes an asset and reports failure so the caller can retry.
type AssetDestroyer interface {
	Destroy(ctx context.Context, ref model.AssetRef) error
}
