package deliveries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/repo"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed delivery repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.DB(ctx).Create(delivery).Error
}

func (r *gormRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.DB(ctx).Where("order_id = ?", orderID).First(&delivery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("delivery not found for order: %s", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return &delivery, nil
}

func (r *gormRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).Model(&models.Delivery{}).
		Where("id = ?", id).
		Updates(updates).Error
}
