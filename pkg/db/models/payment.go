package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
)

// Payment is an append-only settlement record. Each payment adjusts the
// retailer balance exactly once, at creation.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     *uuid.UUID          `gorm:"column:order_id;type:uuid;index"`
	RetailerID  uuid.UUID           `gorm:"column:retailer_id;type:uuid;not null;index"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentType enums.PaymentType   `gorm:"column:payment_type;type:payment_type;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'completed'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
