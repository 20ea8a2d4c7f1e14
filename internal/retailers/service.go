package retailers

import (
	"context"
	"fmt"

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

// CreateInput registers a new retailer account.
type CreateInput struct {
	CompanyName  string
	ContactEmail string
	CreditLimit  decimal.Decimal
}

// OverrideBalanceInput is the admin-only direct balance write. It bypasses the
// credit limit check and is always audited.
type OverrideBalanceInput struct {
	RetailerID uuid.UUID
	NewBalance decimal.Decimal
	Actor      string
	Reason     string
}

// Service manages retailer accounts and their onboarding lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Retailer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Retailer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RetailerStatus, actor string) (*models.Retailer, error)
	OverrideBalance(ctx context.Context, input OverrideBalanceInput) (*models.Retailer, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	audit audit.Service
	logg  *logger.Logger
}

// NewService wires the retailer service with its dependencies.
func NewService(repo Repository, tx txRunner, auditSvc audit.Service, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, audit: auditSvc, logg: logg}
}

// retailerStatusTransitions is the admin lifecycle: approve or reject pending
// accounts, suspend active ones, reinstate suspended ones.
var retailerStatusTransitions = map[enums.RetailerStatus][]enums.RetailerStatus{
	enums.RetailerStatusPending:   {enums.RetailerStatusActive, enums.RetailerStatusRejected},
	enums.RetailerStatusActive:    {enums.RetailerStatusSuspended},
	enums.RetailerStatusSuspended: {enums.RetailerStatusActive},
	enums.RetailerStatusRejected:  {},
}

func canTransition(from, to enums.RetailerStatus) bool {
	for _, candidate := range retailerStatusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Retailer, error) {
	if input.CompanyName == "" || input.ContactEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name and contact email are required")
	}
	if input.CreditLimit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative")
	}

	retailer := &models.Retailer{
		CompanyName:    input.CompanyName,
		ContactEmail:   input.ContactEmail,
		Status:         enums.RetailerStatusPending,
		CreditLimit:    input.CreditLimit,
		CurrentBalance: decimal.Zero,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, retailer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create retailer")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Actor:        "system",
			Action:       "retailer.create",
			ResourceType: "retailer",
			ResourceID:   retailer.ID.String(),
			NewValues:    retailer,
		})
	})
	if err != nil {
		return nil, err
	}
	return retailer, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Retailer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RetailerStatus, actor string) (*models.Retailer, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid retailer status: %s", status))
	}

	var updated *models.Retailer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		retailer, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(retailer.Status, status) {
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("Invalid retailer status transition from %s to %s", retailer.Status, status))
		}
		previous := retailer.Status
		if err := txRepo.UpdateStatus(ctx, id, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update retailer status")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        actor,
			Action:       "retailer.status_update",
			ResourceType: "retailer",
			ResourceID:   id.String(),
			OldValues:    map[string]string{"status": previous.String()},
			NewValues:    map[string]string{"status": status.String()},
		}); err != nil {
			return err
		}
		retailer.Status = status
		updated = retailer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) OverrideBalance(ctx context.Context, input OverrideBalanceInput) (*models.Retailer, error) {
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required for balance overrides")
	}

	var updated *models.Retailer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		retailer, err := txRepo.FindByID(ctx, input.RetailerID)
		if err != nil {
			return err
		}
		previous := retailer.CurrentBalance
		if err := txRepo.SetBalance(ctx, input.RetailerID, input.NewBalance); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "override balance")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "retailer.balance_override",
			ResourceType: "retailer",
			ResourceID:   input.RetailerID.String(),
			OldValues:    map[string]string{"current_balance": previous.String()},
			NewValues:    map[string]string{"current_balance": input.NewBalance.String(), "reason": input.Reason},
		}); err != nil {
			return err
		}
		retailer.CurrentBalance = input.NewBalance
		updated = retailer
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithRetailerID(ctx, input.RetailerID.String()), "retailer.balance_override applied")
	return updated, nil
}
