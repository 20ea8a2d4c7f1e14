package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/pagination"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/types"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_repo_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, retailerID uuid.UUID, status enums.OrderStatus, total string, createdAt time.Time) *models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := &models.Order{
		OrderNumber:     fmt.Sprintf("ORD-%06d-%04d", createdAt.Unix()%1_000_000, seededCounter()),
		RetailerID:      retailerID,
		Status:          status,
		PaymentMethod:   enums.PaymentMethodCredit,
		Subtotal:        amount,
		TotalAmount:     amount,
		DeliveryAddress: "12 Quay Street",
		CreatedAt:       createdAt,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

var seedSeq int

func seededCounter() int {
	seedSeq++
	return seedSeq % 10_000
}

func TestListPaginatesWithCursor(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	retailerID := uuid.New()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	oldest := seedOrder(t, conn, retailerID, enums.OrderStatusPending, "10.00", base)
	middle := seedOrder(t, conn, retailerID, enums.OrderStatusPending, "20.00", base.Add(time.Minute))
	newest := seedOrder(t, conn, retailerID, enums.OrderStatusPending, "30.00", base.Add(2*time.Minute))

	page, err := r.List(ctx, ListFilters{
		RetailerID: &retailerID,
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	// Limit+1 rows come back so the caller can detect the next page.
	require.Len(t, page, 3)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)

	cursor := pagination.NextCursorFrom(page[1].CreatedAt, page[1].ID)
	rest, err := r.List(ctx, ListFilters{
		RetailerID: &retailerID,
		Pagination: pagination.Params{Limit: 2, Cursor: cursor},
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

func TestListRejectsMalformedCursor(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)

	_, err := r.List(context.Background(), ListFilters{
		Pagination: pagination.Params{Limit: 10, Cursor: "not-base64!!"},
	})
	require.Error(t, err)
}

func TestUpdateStatusIfCurrentGuardsStaleWrites(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, "10.00", time.Now().UTC())

	applied, err := r.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	// A second writer still holding the pending snapshot loses the race.
	applied, err = r.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	reloaded, err := r.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
}

func TestUpdateStatusIfCurrentBindsMetadata(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, "10.00", time.Now().UTC())

	now := time.Now().UTC()
	metadata := types.OrderMetadata{Cancellation: &types.CancellationInfo{
		Reason:      "retailer request",
		CancelledAt: now,
		CancelledBy: "admin:ops",
	}}
	applied, err := r.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{
		"cancelled_at": now,
		"metadata":     metadata,
	})
	require.NoError(t, err)
	require.True(t, applied)

	reloaded, err := r.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	require.NotNil(t, reloaded.Metadata.Cancellation)
	assert.Equal(t, "retailer request", reloaded.Metadata.Cancellation.Reason)
	assert.Equal(t, "admin:ops", reloaded.Metadata.Cancellation.CancelledBy)
}

func TestReplaceItemsSwapsAllLines(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, "10.00", time.Now().UTC())
	original := []models.OrderItem{{
		OrderID:    order.ID,
		ProductID:  uuid.New(),
		Quantity:   1,
		UnitPrice:  decimal.RequireFromString("10.00"),
		TotalPrice: decimal.RequireFromString("10.00"),
	}}
	require.NoError(t, conn.Create(&original).Error)

	replacement := []models.OrderItem{
		{
			OrderID:    order.ID,
			ProductID:  uuid.New(),
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("4.00"),
			TotalPrice: decimal.RequireFromString("8.00"),
		},
		{
			OrderID:    order.ID,
			ProductID:  uuid.New(),
			Quantity:   1,
			UnitPrice:  decimal.RequireFromString("3.50"),
			TotalPrice: decimal.RequireFromString("3.50"),
		},
	}
	require.NoError(t, r.ReplaceItems(ctx, order.ID, replacement))

	reloaded, err := r.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	for _, item := range reloaded.Items {
		assert.NotEqual(t, original[0].ID, item.ID)
	}
}

func TestCountByStatusRespectsWindow(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	retailerID := uuid.New()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(t, conn, retailerID, enums.OrderStatusPending, "10.00", base)
	seedOrder(t, conn, retailerID, enums.OrderStatusPending, "10.00", base.AddDate(0, 0, 1))
	seedOrder(t, conn, retailerID, enums.OrderStatusDelivered, "25.00", base.AddDate(0, 0, 2))
	seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, "99.00", base)

	counts, err := r.CountByStatus(ctx, StatsFilters{RetailerID: &retailerID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[enums.OrderStatusPending])
	assert.Equal(t, int64(1), counts[enums.OrderStatusDelivered])

	from := base.AddDate(0, 0, 2)
	counts, err = r.CountByStatus(ctx, StatsFilters{RetailerID: &retailerID, DateFrom: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[enums.OrderStatusPending])
	assert.Equal(t, int64(1), counts[enums.OrderStatusDelivered])
}

func TestRevenueBetweenSumsWindow(t *testing.T) {
	conn := newRepoTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	retailerID := uuid.New()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(t, conn, retailerID, enums.OrderStatusDelivered, "10.00", base)
	seedOrder(t, conn, retailerID, enums.OrderStatusDelivered, "15.50", base.AddDate(0, 0, 3))

	revenue, count, err := r.RevenueBetween(ctx, &retailerID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, revenue.Equal(decimal.RequireFromString("25.50")), "revenue = %s", revenue)

	from := base.AddDate(0, 0, 1)
	revenue, count, err = r.RevenueBetween(ctx, &retailerID, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, revenue.Equal(decimal.RequireFromString("15.50")), "revenue = %s", revenue)

	empty, count, err := r.RevenueBetween(ctx, &retailerID, nil, &base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, empty.Equal(decimal.RequireFromString("10.00")), "revenue = %s", empty)
}
