package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/repo"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.DB(ctx).Create(payment).Error
}

func (r *gormRepository) ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Payment, error) {
	var result []models.Payment
	err := r.DB(ctx).
		Where("retailer_id = ?", retailerID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return result, nil
}
