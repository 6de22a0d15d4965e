package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AssetRef is the asset service's answer for one stored file.
type AssetRef struct {
	CanonicalURL string            `json:"url"`
	Variants     map[string]string `json:"variants,omitempty"`
	ProviderID   string            `json:"providerId"`
	Provider     string            `json:"provider"`
	ContentType  string            `json:"contentType"`
	Bytes        int64             `json:"bytes"`
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	PageCount    int               `json:"pageCount,omitempty"`
	// ResourceType is the provider's own classification, needed to address the asset again.
	ResourceType string `json:"resourceType,omitempty"`
}

// VariantURL falls back to the canonical URL when the variant is missing.
func (a AssetRef) VariantURL(name string) string {
	if u := a.Variants[name]; u != "" {
		return u
	}
	return a.CanonicalURL
}

func (a AssetRef) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal AssetRef: %w", err)
	}
	return b, nil
}

// AssetEvent is published after a commit lands. Entities created under a
// parent (messages in a chat) are announced on the parent's channel.
type AssetEvent struct {
	Type             string     `json:"type"`
	Profile          string     `json:"profile"`
	Collection       string     `json:"collection"`
	EntityID         string     `json:"entityId"`
	ParentCollection string     `json:"parentCollection,omitempty"`
	ParentID         string     `json:"parentId,omitempty"`
	ActorID          string     `json:"actorId"`
	Assets           []AssetRef `json:"assets"`
}
