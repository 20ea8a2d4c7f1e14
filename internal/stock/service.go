package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

// Service is the only code path allowed to mutate Product.StockQuantity.
// Decrements are guarded at the database so stock can never go negative even
// under concurrent order creation for the same product.
type Service interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type service struct{}

// NewService returns the default stock reservation implementation.
func NewService() Service {
	return service{}
}

// Decrement reserves qty units of the product. The conditional WHERE clause is
// the concurrency guard: two racing decrements can both read enough stock, but
// only updates that still satisfy stock_quantity >= qty apply.
func (service) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock decrement quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return decrementFailure(ctx, tx, productID)
	}
	return nil
}

// Increment restores qty units, used when orders are cancelled or items
// replaced. It never fails on business grounds.
func (service) Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock increment quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock increment")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product not found: %s", productID))
	}
	return nil
}

func decrementFailure(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	var product models.Product
	err := tx.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product not found: %s", productID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product after failed decrement")
	}
	return pkgerrors.New(pkgerrors.CodePrecondition, fmt.Sprintf("Insufficient stock for product: %s", product.Name))
}
