package task

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/hibiken/asynq"
)

type Dispatcher struct {
	client *asynq.Client
}

// compile-time check
var _ port.TaskDispatcher = (*Dispatcher)(nil)

func NewDispatcher(addr, password string) *Dispatcher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Dispatcher{client: c}
}

func (d *Dispatcher) EnqueueDeleteAsset(ctx context.Context, ref model.AssetRef) error {
	t, err := NewDeleteAssetTask(ref)
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, t)
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "enqueued %s task %s for %s/%s", TypeDeleteAsset, info.ID, ref.Provider, ref.ProviderID)
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}
