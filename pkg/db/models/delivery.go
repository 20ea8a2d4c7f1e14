package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
)

// Delivery is the fulfillment record created when an order is confirmed. It is
// owned by the delivery subsystem; the order engine creates it and reads its
// terminal status.
type Delivery struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status          enums.DeliveryStatus `gorm:"column:status;type:delivery_status;not null;default:'pending'"`
	CashToCollect   decimal.Decimal      `gorm:"column:cash_to_collect;type:numeric(12,2);not null;default:0"`
	DeliveryAddress string               `gorm:"column:delivery_address;not null"`
	DriverName      *string              `gorm:"column:driver_name"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Delivery) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
