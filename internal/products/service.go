package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/audit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/stock"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput registers a catalog product.
type CreateInput struct {
	SKU           string
	Name          string
	BasePrice     decimal.Decimal
	StockQuantity int
}

// AdjustStockInput is the admin stock mutation. Delta may be negative; the
// decrement path still refuses to take stock below zero.
type AdjustStockInput struct {
	ProductID uuid.UUID
	Delta     int
	Actor     string
	Reason    string
}

// Service manages catalog products. All stock mutations route through the
// stock reservation service.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, actor string) (*models.Product, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	stock stock.Service
	audit audit.Service
	logg  *logger.Logger
}

// NewService wires the product service with its dependencies.
func NewService(repo Repository, tx txRunner, stockSvc stock.Service, auditSvc audit.Service, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, stock: stockSvc, audit: auditSvc, logg: logg}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.SKU == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if !input.BasePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative")
	}

	product := &models.Product{
		SKU:           input.SKU,
		Name:          input.Name,
		BasePrice:     input.BasePrice,
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Actor:        "system",
			Action:       "product.create",
			ResourceType: "product",
			ResourceID:   product.ID.String(),
			NewValues:    product,
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Product, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock adjustment delta must not be zero")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required for stock adjustments")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		previous := product.StockQuantity

		if input.Delta > 0 {
			err = s.stock.Increment(ctx, tx, input.ProductID, input.Delta)
		} else {
			err = s.stock.Decrement(ctx, tx, input.ProductID, -input.Delta)
		}
		if err != nil {
			return err
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "product.stock_adjust",
			ResourceType: "product",
			ResourceID:   input.ProductID.String(),
			OldValues:    map[string]int{"stock_quantity": previous},
			NewValues:    map[string]any{"stock_quantity": previous + input.Delta, "reason": input.Reason},
		}); err != nil {
			return err
		}
		product.StockQuantity = previous + input.Delta
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool, actor string) (*models.Product, error) {
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if product.IsActive == active {
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("Product is already %s", activeWord(active)))
		}
		if err := txRepo.SetActive(ctx, id, active); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle product")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        actor,
			Action:       "product.set_active",
			ResourceType: "product",
			ResourceID:   id.String(),
			OldValues:    map[string]bool{"is_active": product.IsActive},
			NewValues:    map[string]bool{"is_active": active},
		}); err != nil {
			return err
		}
		product.IsActive = active
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func activeWord(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
