package assets

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

const (
	ProviderObjectStore = "objectstore"
	cacheControl        = "public, max-age=31536000, immutable"
)

// ObjectStore applies recipes locally and keeps the results in the object store.
type ObjectStore struct {
	storage port.Storage
	rand    io.Reader
}

// compile-time check: *ObjectStore must satisfy Provider
var _ Provider = (*ObjectStore)(nil)

func NewObjectStore(strg port.Storage) *ObjectStore {
	return &ObjectStore{storage: strg, rand: rand.Reader}
}

func (o *ObjectStore) Name() string { return ProviderObjectStore }

func (o *ObjectStore) Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error) {
	file, err := os.Open(f.TempPath)
	if err != nil {
		return nil, fmt.Errorf("objectstore: open staged file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warnf(ctx, "failed to close staged file %q: %v", f.TempPath, err)
		}
	}()

	prefix, err := o.prefixFor(file)
	if err != nil {
		return nil, err
	}
	bucket := f.Profile.Bucket

	rendition, err := Render(f.DeclaredMime, file, f.Profile.Transform)
	switch {
	case errors.Is(err, ErrUnsupportedContent):
		return o.storeRaw(ctx, f, file, bucket, prefix)
	case err != nil:
		return nil, err
	}

	ref := &model.AssetRef{
		ProviderID:  bucket + "/" + prefix,
		ContentType: rendition.ContentType,
		Bytes:       int64(len(rendition.Data)),
		Width:       rendition.Width,
		Height:      rendition.Height,
		PageCount:   rendition.PageCount,
	}

	key := prefix + "/original." + rendition.Ext
	if err := o.save(ctx, bucket, key, rendition.Data, rendition.ContentType); err != nil {
		return nil, err
	}
	ref.CanonicalURL = o.storage.PublicURL(bucket, key)

	for _, v := range rendition.Variants {
		vkey := prefix + "/" + v.Name + "." + v.Ext
		if err := o.save(ctx, bucket, vkey, v.Data, v.ContentType); err != nil {
			o.discard(ctx, *ref)
			return nil, err
		}
		if ref.Variants == nil {
			ref.Variants = make(map[string]string, len(rendition.Variants))
		}
		ref.Variants[v.Name] = o.storage.PublicURL(bucket, vkey)
	}
	return ref, nil
}

func (o *ObjectStore) storeRaw(ctx context.Context, f *model.StagedFile, file *os.File, bucket, prefix string) (*model.AssetRef, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("objectstore: rewind staged file: %w", err)
	}
	key := prefix + "/original" + extensionOf(f.DeclaredName)
	err := o.storage.SaveFile(ctx, bucket, key, file, f.SizeBytes, map[string]string{
		"Content-Type":  f.DeclaredMime,
		"Cache-Control": cacheControl,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: save %s: %w", key, err)
	}
	return &model.AssetRef{
		CanonicalURL: o.storage.PublicURL(bucket, key),
		ProviderID:   bucket + "/" + prefix,
		ContentType:  f.DeclaredMime,
		Bytes:        f.SizeBytes,
	}, nil
}

func (o *ObjectStore) save(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	err := o.storage.SaveFile(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), map[string]string{
		"Content-Type":  contentType,
		"Cache-Control": cacheControl,
	})
	if err != nil {
		return fmt.Errorf("objectstore: save %s: %w", key, err)
	}
	return nil
}

// Destroy removes the original and every variant stored under the asset's prefix.
func (o *ObjectStore) Destroy(ctx context.Context, ref model.AssetRef) error {
	bucket, prefix, ok := strings.Cut(ref.ProviderID, "/")
	if !ok || bucket == "" || prefix == "" {
		return fmt.Errorf("objectstore: malformed provider id %q", ref.ProviderID)
	}
	return o.storage.RemovePrefix(ctx, bucket, prefix+"/")
}

func (o *ObjectStore) discard(ctx context.Context, ref model.AssetRef) {
	if err := o.Destroy(ctx, ref); err != nil {
		logger.Warnf(ctx, "⚠️  could not remove partial upload %s: %v", ref.ProviderID, err)
	}
}

// prefixFor derives a content-addressed prefix with a random suffix so identical uploads stay distinct.
func (o *ObjectStore) prefixFor(file *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("objectstore: hash staged file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("objectstore: rewind staged file: %w", err)
	}
	suffix := make([]byte, 4)
	if _, err := io.ReadFull(o.rand, suffix); err != nil {
		return "", fmt.Errorf("objectstore: random suffix: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil))[:24] + "-" + hex.EncodeToString(suffix), nil
}

func extensionOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 10 {
		return ".bin"
	}
	return ext
}
