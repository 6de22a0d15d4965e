package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/mock"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

type fakeProvider struct {
	mu         sync.Mutex
	name       string
	ref        *model.AssetRef
	err        error
	block      bool
	calls      int
	destroyed  []string
	destroyErr error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	ref := *p.ref
	return &ref, nil
}

func (p *fakeProvider) Destroy(ctx context.Context, ref model.AssetRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = append(p.destroyed, ref.ProviderID)
	return p.destroyErr
}

func avatarFile() *model.StagedFile {
	return &model.StagedFile{
		TempPath:     "/tmp/avatar-1.png",
		Field:        "avatar",
		DeclaredMime: "image/png",
		DeclaredName: "me.png",
		SizeBytes:    10,
		State:        model.StateValidated,
		Profile: &model.UploadProfile{
			Name:     "user-avatar",
			Provider: ProviderCloudinary,
			Bucket:   "skillswap-avatars",
			Transform: model.Recipe{
				model.Resize(300, 300, model.CropThumb, model.GravityAuto),
				model.Eager(
					model.Variant("thumbnail", model.Resize(150, 150, model.CropThumb, model.GravityAuto)),
					model.Variant("small", model.Resize(50, 50, model.CropThumb, model.GravityAuto)),
				),
			},
		},
	}
}

func defaultOptions() Options {
	return Options{
		Timeout:            time.Second,
		BreakerFailureRate: 0.5,
		BreakerMinRequests: 2,
		BreakerTimeout:     time.Minute,
	}
}

func TestUpload_VariantFallback(t *testing.T) {
	p := &fakeProvider{
		name: ProviderCloudinary,
		ref: &model.AssetRef{
			CanonicalURL: "https://cdn/a.webp",
			ProviderID:   "skillswap-avatars/a",
			Variants:     map[string]string{"thumbnail": "https://cdn/a_t.webp"},
		},
	}
	svc := NewService(defaultOptions(), p)
	f := avatarFile()

	ref, err := svc.Upload(context.Background(), f)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ref.Variants["thumbnail"] != "https://cdn/a_t.webp" {
		t.Errorf("thumbnail = %q", ref.Variants["thumbnail"])
	}
	if ref.Variants["small"] != "https://cdn/a.webp" {
		t.Errorf("small should fall back to canonical URL, got %q", ref.Variants["small"])
	}
	if ref.Provider != ProviderCloudinary {
		t.Errorf("provider = %q", ref.Provider)
	}
	if f.State != model.StateUploaded {
		t.Errorf("state = %s; want uploaded", f.State)
	}
}

func TestUpload_ProviderFailure(t *testing.T) {
	p := &fakeProvider{name: ProviderCloudinary, err: errors.New("503 from provider")}
	svc := NewService(defaultOptions(), p)
	f := avatarFile()

	_, err := svc.Upload(context.Background(), f)
	if !errors.Is(err, ErrAssetServiceUnavailable) {
		t.Fatalf("err = %v; want ErrAssetServiceUnavailable", err)
	}
	if f.State != model.StateValidated {
		t.Errorf("state changed on failure: %s", f.State)
	}
}

func TestUpload_BreakerOpensAfterFailures(t *testing.T) {
	p := &fakeProvider{name: ProviderCloudinary, err: errors.New("boom")}
	svc := NewService(defaultOptions(), p)

	for i := 0; i < 2; i++ {
		_, _ = svc.Upload(context.Background(), avatarFile())
	}
	_, err := svc.Upload(context.Background(), avatarFile())
	if !errors.Is(err, ErrAssetServiceUnavailable) {
		t.Fatalf("err = %v; want ErrAssetServiceUnavailable", err)
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d; want 2 (third rejected by open breaker)", p.calls)
	}
}

func TestUpload_InvalidContentDoesNotTripBreaker(t *testing.T) {
	svc := NewService(defaultOptions(), NewObjectStore(&mock.Storage{}))

	for i := range 10 {
		f := staged(t, fmt.Sprintf("corrupt-%d.png", i), "image/png", []byte("not a png at all"), nil)
		_, err := svc.Upload(context.Background(), f)
		if !errors.Is(err, ErrInvalidContent) {
			t.Fatalf("upload %d: err = %v; want ErrInvalidContent", i, err)
		}
		if errors.Is(err, ErrAssetServiceUnavailable) {
			t.Fatalf("upload %d: corrupt file reported as provider outage: %v", i, err)
		}
	}

	f := staged(t, "valid.png", "image/png", generatePNG(t, 20, 20), nil)
	ref, err := svc.Upload(context.Background(), f)
	if err != nil {
		t.Fatalf("valid upload after corrupt ones: %v", err)
	}
	if ref.Width != 20 || ref.Height != 20 {
		t.Errorf("dimensions = %dx%d; want 20x20", ref.Width, ref.Height)
	}
}

func TestUpload_TimeoutBecomesUnavailable(t *testing.T) {
	p := &fakeProvider{name: ProviderCloudinary, block: true}
	opts := defaultOptions()
	opts.Timeout = 20 * time.Millisecond
	svc := NewService(opts, p)

	start := time.Now()
	_, err := svc.Upload(context.Background(), avatarFile())
	if !errors.Is(err, ErrAssetServiceUnavailable) {
		t.Fatalf("err = %v; want ErrAssetServiceUnavailable", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("upload was not bounded by the timeout")
	}
}

func TestUpload_CancellationDoesNotTripBreaker(t *testing.T) {
	p := &fakeProvider{name: ProviderCloudinary, block: true}
	svc := NewService(defaultOptions(), p)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _ = svc.Upload(ctx, avatarFile())
	}
	if p.calls != 3 {
		t.Errorf("provider calls = %d; want 3 (breaker must stay closed)", p.calls)
	}
}

func TestUpload_UnknownProvider(t *testing.T) {
	svc := NewService(defaultOptions())
	_, err := svc.Upload(context.Background(), avatarFile())
	if !errors.Is(err, ErrAssetServiceUnavailable) || !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v; want unknown provider", err)
	}
}

func TestDelete_BestEffort(t *testing.T) {
	p := &fakeProvider{name: ProviderCloudinary, destroyErr: errors.New("gone away")}
	svc := NewService(defaultOptions(), p)

	// must not panic or block
	svc.Delete(context.Background(), model.AssetRef{Provider: ProviderCloudinary, ProviderID: "x"})
	if len(p.destroyed) != 1 || p.destroyed[0] != "x" {
		t.Errorf("destroyed = %v", p.destroyed)
	}

	if err := svc.Destroy(context.Background(), model.AssetRef{Provider: ProviderCloudinary, ProviderID: "y"}); !errors.Is(err, ErrAssetServiceUnavailable) {
		t.Errorf("Destroy err = %v; want ErrAssetServiceUnavailable", err)
	}
	if err := svc.Destroy(context.Background(), model.AssetRef{Provider: "s3", ProviderID: "y"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Destroy err = %v; want ErrUnknownProvider", err)
	}
	if err := svc.Destroy(context.Background(), model.AssetRef{Provider: ProviderCloudinary}); err != nil {
		t.Errorf("Destroy of empty ref err = %v", err)
	}
}

func TestProviders(t *testing.T) {
	svc := NewService(defaultOptions(), &fakeProvider{name: ProviderCloudinary}, &fakeProvider{name: ProviderObjectStore})
	got := svc.Providers()
	if !got[ProviderCloudinary] || !got[ProviderObjectStore] || len(got) != 2 {
		t.Errorf("Providers() = %v", got)
	}
}
