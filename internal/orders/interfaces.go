package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
)

// Repository persists purchase orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// UpdateStatusIfCurrent applies the status change only when the row still
	// holds the expected current status. Returns false when the guard missed.
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current, next enums.OrderStatus, extra map[string]any) (bool, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	CountByStatus(ctx context.Context, filters StatsFilters) (map[enums.OrderStatus]int64, error)
	RevenueBetween(ctx context.Context, retailerID *uuid.UUID, from, to *time.Time) (decimal.Decimal, int64, error)
}

// DeliveryBridge creates fulfillment records for confirmed orders. Creation is
// best-effort; failures never roll back the order status change.
type DeliveryBridge interface {
	CreateForOrder(ctx context.Context, order *models.Order) (*models.Delivery, error)
}
