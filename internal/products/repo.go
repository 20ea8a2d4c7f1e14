package products

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

// NewRepository builds the GORM-backed product repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product not found: %s", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var result []models.Product
	if len(ids) == 0 {
		return result, nil
	}
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&result).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return result, nil
}

func (r *gormRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
