package task

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/hibiken/asynq"
)

const TypeDeleteAsset = "asset:delete"

type DeleteAssetPayload struct {
	Asset model.AssetRef `json:"asset"`
}

// NewDeleteAssetTask creates an Asynq task removing a superseded asset from its provider.
func NewDeleteAssetTask(ref model.AssetRef) (*asynq.Task, error) {
	data, err := json.Marshal(DeleteAssetPayload{Asset: ref})
	if err != nil {
		return nil, fmt.Errorf("could not marshal delete-asset payload: %w", err)
	}
	return asynq.NewTask(TypeDeleteAsset, data, asynq.MaxRetry(10)), nil
}

// ParseDeleteAssetPayload parses the task payload to DeleteAssetPayload.
func ParseDeleteAssetPayload(t *asynq.Task) (DeleteAssetPayload, error) {
	var p DeleteAssetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return DeleteAssetPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	if p.Asset.Provider == "" || p.Asset.ProviderID == "" {
		return DeleteAssetPayload{}, errors.New("payload has no asset reference")
	}
	return p, nil
}
