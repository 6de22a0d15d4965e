package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// Dispatcher records enqueued deletions.
type Dispatcher struct {
	mu      sync.Mutex
	Deletes []model.AssetRef
	Err     error
}

func (m *Dispatcher) EnqueueDeleteAsset(ctx context.Context, ref model.AssetRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, ref)
	return m.Err
}

func (m *Dispatcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deletes)
}
