package port

import (
	"context"
	"errors"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version conflict")
)

// DocumentRepository persists owning entities with single-document atomicity.
type DocumentRepository interface {
	Get(ctx context.Context, collection, id string) (*model.Document, error)
	Insert(ctx context.Context, doc *model.Document) error
	// Replace writes doc only if the stored version still equals doc.Version.
	Replace(ctx context.Context, doc *model.Document) error
}

// ActivityRepository persists activity records.
type ActivityRepository interface {
	Create(ctx context.Context, a *model.Activity) error
}
