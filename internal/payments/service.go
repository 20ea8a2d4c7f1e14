package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/audit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/credit"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RecordInput captures money received from a retailer. Amount is always
// positive; the balance is credited by exactly that amount, once, in the same
// transaction as the payment row.
type RecordInput struct {
	RetailerID  uuid.UUID
	OrderID     *uuid.UUID
	Amount      decimal.Decimal
	PaymentType enums.PaymentType
	Actor       string
}

// Service records settlements against retailer balances.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Payment, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	credit credit.Service
	audit  audit.Service
}

// NewService wires the payment service with its dependencies.
func NewService(repo Repository, tx txRunner, creditSvc credit.Service, auditSvc audit.Service) Service {
	return &service{repo: repo, tx: tx, credit: creditSvc, audit: auditSvc}
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}
	if input.PaymentType == enums.PaymentTypeOrderPayment && input.OrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order payments require an order id")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	payment := &models.Payment{
		OrderID:     input.OrderID,
		RetailerID:  input.RetailerID,
		Amount:      input.Amount,
		PaymentType: input.PaymentType,
		Status:      enums.PaymentStatusCompleted,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		// Money received pays the balance up; refunds/limits do not apply.
		if err := s.credit.AdjustBalance(ctx, tx, input.RetailerID, input.Amount, false); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "payment.record",
			ResourceType: "payment",
			ResourceID:   payment.ID.String(),
			NewValues:    payment,
		})
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Payment, error) {
	return s.repo.ListByRetailer(ctx, retailerID)
}
