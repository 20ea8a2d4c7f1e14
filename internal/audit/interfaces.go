package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
)

// Repository persists audit log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLogEntry) error
}
