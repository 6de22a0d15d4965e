package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// AssetService hands out predictable refs and records deletions.
type AssetService struct {
	mu  sync.Mutex
	seq atomic.Int64

	// Err fails every upload; FailName fails only the file with that declared name.
	Err      error
	FailName string

	Uploaded []string
	Deleted  []model.AssetRef
}

func (m *AssetService) Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error) {
	m.mu.Lock()
	m.Uploaded = append(m.Uploaded, f.DeclaredName)
	m.mu.Unlock()

	if m.Err != nil && (m.FailName == "" || m.FailName == f.DeclaredName) {
		return nil, m.Err
	}

	n := m.seq.Add(1)
	id := fmt.Sprintf("%s/%s-%d", f.Profile.Bucket, f.Field, n)
	ref := &model.AssetRef{
		CanonicalURL: "https://cdn.example/" + id,
		ProviderID:   id,
		Provider:     f.Profile.Provider,
		ContentType:  f.DeclaredMime,
		Bytes:        f.SizeBytes,
	}
	for _, name := range f.Profile.VariantNames() {
		if ref.Variants == nil {
			ref.Variants = map[string]string{}
		}
		ref.Variants[name] = ref.CanonicalURL + "?" + name
	}
	f.State = model.StateUploaded
	return ref, nil
}

func (m *AssetService) Delete(ctx context.Context, ref model.AssetRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, ref)
}

func (m *AssetService) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Uploaded)
}

func (m *AssetService) DeletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Deleted))
	for _, r := range m.Deleted {
		ids = append(ids, r.ProviderID)
	}
	return ids
}

// AssetDestroyer implements port.AssetDestroyer for tests.
type AssetDestroyer struct {
	Err    error
	Ref    model.AssetRef
	Called bool
}

func (m *AssetDestroyer) Destroy(ctx context.Context, ref model.AssetRef) error {
	m.Called = true
	m.Ref = ref
	return m.Err
}
