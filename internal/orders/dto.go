package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/pagination"
)

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID      uuid.UUID
	Quantity       int
	UnitPrice      decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// CreateInput is the createOrder request.
type CreateInput struct {
	RetailerID      uuid.UUID
	Items           []ItemInput
	DeliveryAddress string
	PaymentMethod   enums.PaymentMethod
	Actor           string
}

// UpdateInput replaces a pending order's items and/or delivery address.
// A nil Items slice leaves the lines untouched.
type UpdateInput struct {
	OrderID         uuid.UUID
	Items           []ItemInput
	DeliveryAddress *string
	Actor           string
}

// UpdateStatusInput moves an order through its state machine.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Notes   *string
	Actor   string
}

// BulkUpdateStatusInput applies one transition to a whole batch, atomically.
type BulkUpdateStatusInput struct {
	OrderIDs []uuid.UUID
	Status   enums.OrderStatus
	Notes    *string
	Actor    string
}

// BulkUpdateResult reports a fully applied batch.
type BulkUpdateResult struct {
	UpdatedCount int            `json:"updated_count"`
	Orders       []models.Order `json:"updated_orders"`
}

// CancelInput is the business cancellation request.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Notes   *string
	Actor   string
}

// ListFilters narrows order listings.
type ListFilters struct {
	RetailerID *uuid.UUID
	Status     *enums.OrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Pagination pagination.Params
}

// OrderList is one cursor page of orders.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// StatsFilters narrows the aggregation window.
type StatsFilters struct {
	RetailerID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Stats is the read-side aggregate. Empty result sets produce zeros.
type Stats struct {
	TotalOrders       int64            `json:"total_orders"`
	CountsByStatus    map[string]int64 `json:"counts_by_status"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	RevenueThisWeek   decimal.Decimal  `json:"revenue_this_week"`
	RevenueLastWeek   decimal.Decimal  `json:"revenue_last_week"`
	// WeekOverWeekPct is nil when last week had no revenue to compare against.
	WeekOverWeekPct *float64 `json:"week_over_week_pct,omitempty"`
}
