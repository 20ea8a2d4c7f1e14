package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
)

// Repository persists delivery records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// OrderFinalizer closes the loop back into the order lifecycle when a
// delivery reaches its terminal delivered state.
type OrderFinalizer interface {
	MarkDelivered(ctx context.Context, orderID uuid.UUID, actor string) error
}
