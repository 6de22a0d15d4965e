package port

import (
	"context"
	"os"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// ScratchStore hands out unique temporary files and removes them.
type ScratchStore interface {
	Acquire(field, declaredName string) (string, *os.File, error)
	Release(path string) error
}

// ScratchTracker owns the release of every file staged during a request.
type ScratchTracker interface {
	Track(f *model.StagedFile)
	Release(ctx context.Context, f *model.StagedFile)
}
