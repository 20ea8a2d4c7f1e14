package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogEntry records a state-changing operation. Entries are append-only:
// never updated, never deleted.
type AuditLogEntry struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Actor        string          `gorm:"column:actor;not null"`
	Action       string          `gorm:"column:action;not null"`
	ResourceType string          `gorm:"column:resource_type;not null;index:idx_audit_resource"`
	ResourceID   string          `gorm:"column:resource_id;not null;index:idx_audit_resource"`
	OldValues    json.RawMessage `gorm:"column:old_values;type:jsonb"`
	NewValues    json.RawMessage `gorm:"column:new_values;type:jsonb"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
