package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/audit"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UpdateStatusInput is pushed by the delivery subsystem.
type UpdateStatusInput struct {
	OrderID    uuid.UUID
	Status     enums.DeliveryStatus
	DriverName *string
	Actor      string
}

// Service owns delivery records. Orders create one delivery per confirmed
// order; the delivery subsystem drives the status afterwards, and only the
// terminal delivered state feeds back into the order lifecycle.
type Service interface {
	CreateForOrder(ctx context.Context, order *models.Order) (*models.Delivery, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Delivery, error)
	BindOrderFinalizer(finalizer OrderFinalizer)
}

type service struct {
	repo      Repository
	tx        txRunner
	audit     audit.Service
	finalizer OrderFinalizer
	logg      *logger.Logger
}

// NewService wires the delivery service. The order finalizer is bound after
// construction because the order engine depends on this service too.
func NewService(repo Repository, tx txRunner, auditSvc audit.Service, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, audit: auditSvc, logg: logg}
}

func (s *service) BindOrderFinalizer(finalizer OrderFinalizer) {
	s.finalizer = finalizer
}

// CreateForOrder creates the fulfillment record for a freshly confirmed order.
// Cash orders carry the full total as cash to collect on the doorstep; credit
// orders collect nothing.
func (s *service) CreateForOrder(ctx context.Context, order *models.Order) (*models.Delivery, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	cashToCollect := decimal.Zero
	if order.PaymentMethod == enums.PaymentMethodCash {
		cashToCollect = order.TotalAmount
	}

	delivery := &models.Delivery{
		OrderID:         order.ID,
		Status:          enums.DeliveryStatusPending,
		CashToCollect:   cashToCollect,
		DeliveryAddress: order.DeliveryAddress,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, delivery); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Actor:        "system",
			Action:       "delivery.create",
			ResourceType: "delivery",
			ResourceID:   delivery.ID.String(),
			NewValues:    delivery,
		})
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

func (s *service) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Delivery, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery status: %s", input.Status))
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	var updated *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		delivery, err := txRepo.FindByOrderID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if !delivery.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("Invalid delivery status transition from %s to %s", delivery.Status, input.Status))
		}
		previous := delivery.Status

		updates := map[string]any{"status": input.Status}
		if input.DriverName != nil {
			updates["driver_name"] = *input.DriverName
		}
		var deliveredAt *time.Time
		if input.Status == enums.DeliveryStatusDelivered {
			now := time.Now().UTC()
			deliveredAt = &now
			updates["delivered_at"] = now
		}
		if err := txRepo.Update(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "delivery.status_update",
			ResourceType: "delivery",
			ResourceID:   delivery.ID.String(),
			OldValues:    map[string]string{"status": previous.String()},
			NewValues:    map[string]string{"status": input.Status.String()},
		}); err != nil {
			return err
		}
		delivery.Status = input.Status
		if input.DriverName != nil {
			delivery.DriverName = input.DriverName
		}
		delivery.DeliveredAt = deliveredAt
		updated = delivery
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The order transition runs in its own transaction. The delivery update
	// stands either way; a failed feedback is reported to the caller.
	if input.Status == enums.DeliveryStatusDelivered && s.finalizer != nil {
		if err := s.finalizer.MarkDelivered(ctx, input.OrderID, input.Actor); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, input.OrderID.String()), "delivery.order_finalize_failed", err)
			return nil, err
		}
	}
	return updated, nil
}
