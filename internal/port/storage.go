package port

import (
	"context"
	"io"
)

// FileInfo represents metadata about a stored object.
type FileInfo struct {
	SizeBytes   int64
	ContentType string
}

// Storage is the object store behind the objectstore asset provider.
type Storage interface {
	InitBucket(bucket string) error
	SaveFile(ctx context.Context, bucket, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error
	StatFile(ctx context.Context, bucket, fileKey string) (FileInfo, error)
	RemoveFile(ctx context.Context, bucket, fileKey string) error
	RemovePrefix(ctx context.Context, bucket, prefix string) error
	PublicURL(bucket, fileKey string) string
}
