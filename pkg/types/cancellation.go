package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CancellationInfo captures why and by whom an order was cancelled. It is the
// typed shape stored in the order metadata column, replacing an open-ended map.
type CancellationInfo struct {
	Reason      string    `json:"reason"`
	Notes       *string   `json:"notes,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
	CancelledBy string    `json:"cancelled_by"`
}

// OrderMetadata is the jsonb payload on an order. Fields are added per
// lifecycle event; today cancellation is the only producer.
type OrderMetadata struct {
	Cancellation *CancellationInfo `json:"cancellation,omitempty"`
}

// Value marshals the metadata for the driver. Map-based gorm updates bypass
// field serializers, so the type binds itself.
func (m OrderMetadata) Value() (driver.Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *OrderMetadata) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = OrderMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan order metadata from %T", value)
	}
}
