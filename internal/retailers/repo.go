package retailers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/repo"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed retailer repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, retailer *models.Retailer) error {
	return r.DB(ctx).Create(retailer).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.DB(ctx).Where("id = ?", id).First(&retailer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("retailer not found: %s", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retailer")
	}
	return &retailer, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RetailerStatus) error {
	return r.DB(ctx).Model(&models.Retailer{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *gormRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return r.DB(ctx).Model(&models.Retailer{}).
		Where("id = ?", id).
		Update("current_balance", balance).Error
}
