package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
)

// Retailer is a buyer-side business account with a credit line. CurrentBalance
// is signed: more negative means more owed; it may never fall below
// -CreditLimit except through a documented admin override.
type Retailer struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CompanyName    string               `gorm:"column:company_name;not null"`
	ContactEmail   string               `gorm:"column:contact_email;not null;uniqueIndex"`
	Status         enums.RetailerStatus `gorm:"column:status;type:retailer_status;not null;default:'pending'"`
	CreditLimit    decimal.Decimal      `gorm:"column:credit_limit;type:numeric(12,2);not null;default:0"`
	CurrentBalance decimal.Decimal      `gorm:"column:current_balance;type:numeric(12,2);not null;default:0"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Retailer) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
