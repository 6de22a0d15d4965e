package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

const ProviderCloudinary = "cloudinary"

// cloudinaryUploader is the subset of the Cloudinary upload API the provider uses.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type Cloudinary struct {
	api cloudinaryUploader
}

// compile-time check: *Cloudinary must satisfy Provider
var _ Provider = (*Cloudinary)(nil)

func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	logger.Info(context.Background(), "initialising cloudinary client...")
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{api: &cld.Upload}, nil
}

func (c *Cloudinary) Name() string { return ProviderCloudinary }

func (c *Cloudinary) Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error) {
	file, err := os.Open(f.TempPath)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: open staged file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warnf(ctx, "failed to close staged file %q: %v", f.TempPath, err)
		}
	}()

	p := f.Profile
	resourceType := p.ResourceType
	if resourceType == "" {
		resourceType = "auto"
	}

	res, err := c.api.Upload(ctx, file, uploader.UploadParams{
		Folder:         p.Bucket,
		ResourceType:   resourceType,
		Transformation: p.Transform.Transformation(),
		Eager:          p.Transform.EagerTransformation(),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, errors.New("cloudinary: upload returned no URL")
	}

	ref := &model.AssetRef{
		CanonicalURL: res.SecureURL,
		ProviderID:   res.PublicID,
		ContentType:  contentTypeFor(res.Format, f.DeclaredMime),
		Bytes:        int64(res.Bytes),
		Width:        res.Width,
		Height:       res.Height,
		PageCount:    res.Pages,
		ResourceType: res.ResourceType,
	}

	// eager results come back in request order
	variants := p.Transform.Variants()
	for i, e := range res.Eager {
		if i >= len(variants) || e.SecureURL == "" {
			continue
		}
		if ref.Variants == nil {
			ref.Variants = make(map[string]string, len(variants))
		}
		ref.Variants[variants[i].Name] = e.SecureURL
	}
	return ref, nil
}

// Destroy treats "not found" as done, so a retried deletion converges.
func (c *Cloudinary) Destroy(ctx context.Context, ref model.AssetRef) error {
	resourceType := ref.ResourceType
	if resourceType == "" {
		resourceType = resourceTypeFor(ref.ContentType)
	}
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     ref.ProviderID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary: destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: destroy: %s", res.Error.Message)
	}
	switch res.Result {
	case "ok":
		return nil
	case "not found":
		logger.Warnf(ctx, "⚠️  cloudinary asset %s/%s already gone", resourceType, ref.ProviderID)
		return nil
	default:
		return fmt.Errorf("cloudinary: destroy %s/%s: unexpected result %q", resourceType, ref.ProviderID, res.Result)
	}
}

// resourceTypeFor maps a MIME type to Cloudinary's resource families. Audio lives under video.
func resourceTypeFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return "video"
	default:
		return "raw"
	}
}

func contentTypeFor(format, fallback string) string {
	if format == "" {
		return fallback
	}
	if ct := mime.TypeByExtension("." + format); ct != "" {
		return ct
	}
	return fallback
}
