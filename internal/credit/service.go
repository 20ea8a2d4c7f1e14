package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

// Service is the only code path allowed to mutate Retailer.CurrentBalance.
// When the limit check is enabled, the guard lives in the UPDATE's WHERE
// clause so concurrent debits cannot push the balance past -credit_limit.
type Service interface {
	AdjustBalance(ctx context.Context, tx *gorm.DB, retailerID uuid.UUID, delta decimal.Decimal, enforceLimit bool) error
}

type service struct{}

// NewService returns the default credit ledger implementation.
func NewService() Service {
	return service{}
}

func (service) AdjustBalance(ctx context.Context, tx *gorm.DB, retailerID uuid.UUID, delta decimal.Decimal, enforceLimit bool) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for balance adjustment")
	}
	if delta.IsZero() {
		return nil
	}

	var res *gorm.DB
	if enforceLimit {
		res = tx.WithContext(ctx).Exec(`
			UPDATE retailers
			SET current_balance = current_balance + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND current_balance + ? >= -credit_limit
		`, delta, retailerID, delta)
	} else {
		res = tx.WithContext(ctx).Exec(`
			UPDATE retailers
			SET current_balance = current_balance + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, delta, retailerID)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust balance")
	}
	if res.RowsAffected == 0 {
		return adjustFailure(ctx, tx, retailerID, enforceLimit)
	}
	return nil
}

func adjustFailure(ctx context.Context, tx *gorm.DB, retailerID uuid.UUID, enforceLimit bool) error {
	var retailer models.Retailer
	err := tx.WithContext(ctx).Where("id = ?", retailerID).First(&retailer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("retailer not found: %s", retailerID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retailer after failed adjustment")
	}
	if !enforceLimit {
		// Unconditional updates only miss when the row is gone.
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("retailer not found: %s", retailerID))
	}
	return pkgerrors.New(pkgerrors.CodePrecondition, fmt.Sprintf("Credit limit exceeded for retailer: %s", retailer.CompanyName))
}
