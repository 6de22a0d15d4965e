package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/uuid"
)

type ActivityMetadata struct {
	Action   string `json:"action"`
	OldAsset string `json:"oldAsset,omitempty"`
	NewAsset string `json:"newAsset,omitempty"`
	Count    int    `json:"count,omitempty"`
}

func (m ActivityMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ActivityMetadata: %w", err)
	}
	return b, nil
}

func (m *ActivityMetadata) Scan(src interface{}) error {
	if src == nil {
		*m = ActivityMetadata{}
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("ActivityMetadata.Scan: expected []byte, got %T", src)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal ActivityMetadata: %w", err)
	}
	return nil
}

// Activity is the audit/feed record written once per successful commit.
type Activity struct {
	ID            uuid.UUID        `json:"id"`
	UserID        string           `json:"user"`
	Type          string           `json:"type"`
	Message       string           `json:"message"`
	ReferenceID   string           `json:"referenceId"`
	ReferenceType string           `json:"referenceType"`
	Metadata      ActivityMetadata `json:"metadata"`
	CreatedAt     time.Time        `json:"createdAt"`
}
