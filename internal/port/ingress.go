package port

import (
	"context"
	"mime/multipart"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// MultipartSource is satisfied by *http.Request.
type MultipartSource interface {
	MultipartReader() (*multipart.Reader, error)
}

type IngestResult struct {
	Files  []*model.StagedFile
	Values map[string]string
}

// Ingestor turns a multipart body into validated staged files.
type Ingestor interface {
	Ingest(ctx context.Context, src MultipartSource, contentLength int64, profile *model.UploadProfile, tracker ScratchTracker) (*IngestResult, error)
}
