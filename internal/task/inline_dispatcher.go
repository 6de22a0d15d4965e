package task

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

// InlineDispatcher deletes assets in-process when no queue is configured.
type InlineDispatcher struct {
	deleter port.AssetService
	timeout time.Duration
	wg      sync.WaitGroup
}

var _ port.TaskDispatcher = (*InlineDispatcher)(nil)

func NewInlineDispatcher(deleter port.AssetService, timeout time.Duration) *InlineDispatcher {
	return &InlineDispatcher{deleter: deleter, timeout: timeout}
}

// EnqueueDeleteAsset returns immediately; the deletion outlives the request context.
func (d *InlineDispatcher) EnqueueDeleteAsset(ctx context.Context, ref model.AssetRef) error {
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()
		d.deleter.Delete(ctx, ref)
	}()
	return nil
}

// Wait blocks until every pending deletion has finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
