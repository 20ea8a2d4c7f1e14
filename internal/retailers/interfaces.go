package retailers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
)

// Repository persists retailer accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, retailer *models.Retailer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Retailer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RetailerStatus) error
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}
