package port

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// ProfileResolver looks up upload profiles by name.
type ProfileResolver interface {
	Resolve(name string) (*model.UploadProfile, error)
}

// UploadPipeline runs one upload request end to end.
type UploadPipeline interface {
	Run(ctx context.Context, in UploadInput) (*UploadOutput, error)
}
type UploadInput struct {
	Profile       string
	Source        MultipartSource
	ContentLength int64
	OwnerID       string
	ActorID       string
	Tracker       ScratchTracker
}
type UploadOutput struct {
	Profile *model.UploadProfile
	Assets  []model.AssetRef
	Entity  *model.Document
}

// Committer records uploaded assets on their owning entity.
type Committer interface {
	Commit(ctx context.Context, in CommitInput) (*CommitOutput, error)
}
type CommitInput struct {
	Profile *model.UploadProfile
	// OwnerID is the entity to update (replace) or the parent entity (create).
	OwnerID string
	ActorID string
	Assets  []model.AssetRef
	Fields  map[string]string
}
type CommitOutput struct {
	Entity   *model.Document
	Previous *model.AssetRef
}
