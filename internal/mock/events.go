package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []model.AssetEvent
	Err    error
}

func (m *Publisher) PublishAssetCommitted(ctx context.Context, ev model.AssetEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return m.Err
}
