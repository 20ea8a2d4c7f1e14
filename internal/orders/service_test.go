package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veloplane-b2b/orderdesk-backend/internal/audit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/credit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/products"
	"github.com/veloplane-b2b/orderdesk-backend/internal/retailers"
	"github.com/veloplane-b2b/orderdesk-backend/internal/stock"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/metrics"
)

type txOverConn struct {
	conn *gorm.DB
}

func (t txOverConn) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.conn.WithContext(ctx).Transaction(fn)
}

type fakeBridge struct {
	created []*models.Order
	err     error
}

func (f *fakeBridge) CreateForOrder(ctx context.Context, order *models.Order) (*models.Delivery, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, order)
	return &models.Delivery{OrderID: order.ID}, nil
}

type testEnv struct {
	conn   *gorm.DB
	svc    Service
	bridge *fakeBridge
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	silent := gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent})
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Retailer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Delivery{},
		&models.AuditLogEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "orderdesk-test", Output: io.Discard})
	bridge := &fakeBridge{}
	svc := NewService(
		NewRepository(conn),
		retailers.NewRepository(conn),
		products.NewRepository(conn),
		stock.NewService(),
		credit.NewService(),
		audit.NewService(audit.NewRepository(conn)),
		bridge,
		txOverConn{conn: conn},
		metrics.NewOrderEngineMetrics(nil),
		logg,
	)
	return &testEnv{conn: conn, svc: svc, bridge: bridge}
}

func (e *testEnv) seedRetailer(t *testing.T, balance, limit float64) *models.Retailer {
	t.Helper()
	retailer := &models.Retailer{
		CompanyName:    "Harbor Minimarkets",
		ContactEmail:   uuid.NewString() + "@example.test",
		Status:         enums.RetailerStatusActive,
		CreditLimit:    decimal.NewFromFloat(limit),
		CurrentBalance: decimal.NewFromFloat(balance),
	}
	if err := e.conn.Create(retailer).Error; err != nil {
		t.Fatalf("seed retailer: %v", err)
	}
	return retailer
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64, stockQty int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:           "SKU-" + uuid.NewString()[:8],
		Name:          name,
		BasePrice:     decimal.NewFromFloat(price),
		StockQuantity: stockQty,
		IsActive:      true,
	}
	if err := e.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (e *testEnv) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := e.conn.Where("id = ?", id).First(&product).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQuantity
}

func (e *testEnv) balanceOf(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var retailer models.Retailer
	if err := e.conn.Where("id = ?", id).First(&retailer).Error; err != nil {
		t.Fatalf("reload retailer: %v", err)
	}
	return retailer.CurrentBalance
}

func (e *testEnv) setStatus(t *testing.T, orderID uuid.UUID, status enums.OrderStatus) {
	t.Helper()
	err := e.conn.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
	if err != nil {
		t.Fatalf("force status: %v", err)
	}
}

func (e *testEnv) createOrder(t *testing.T, retailerID uuid.UUID, method enums.PaymentMethod, items ...ItemInput) *models.Order {
	t.Helper()
	order, err := e.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailerID,
		Items:           items,
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   method,
		Actor:           "retailer:" + retailerID.String(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return order
}

func item(productID uuid.UUID, qty int, price, tax, discount float64) ItemInput {
	return ItemInput{
		ProductID:      productID,
		Quantity:       qty,
		UnitPrice:      decimal.NewFromFloat(price),
		TaxAmount:      decimal.NewFromFloat(tax),
		DiscountAmount: decimal.NewFromFloat(discount),
	}
}

func wantCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
	return coded
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{6}-\d{4}$`)

func TestCreateOrderComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	water := env.seedProduct(t, "Mineral Water 1L", 10.00, 20)
	coffee := env.seedProduct(t, "Coffee Beans 1kg", 50.00, 5)

	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash,
		item(water.ID, 3, 10.00, 0, 0),
		item(coffee.ID, 1, 50.00, 5.00, 0),
	)

	if !order.Subtotal.Equal(decimal.NewFromFloat(80.00)) {
		t.Errorf("subtotal = %s, want 80", order.Subtotal)
	}
	if !order.TaxAmount.Equal(decimal.NewFromFloat(5.00)) {
		t.Errorf("tax = %s, want 5", order.TaxAmount)
	}
	if !order.TotalAmount.Equal(decimal.NewFromFloat(85.00)) {
		t.Errorf("total = %s, want 85", order.TotalAmount)
	}
	if order.Status != enums.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Errorf("order number %q does not match format", order.OrderNumber)
	}
	if got := env.stockOf(t, water.ID); got != 17 {
		t.Errorf("water stock = %d, want 17", got)
	}
	if got := env.stockOf(t, coffee.ID); got != 4 {
		t.Errorf("coffee stock = %d, want 4", got)
	}

	var auditCount int64
	env.conn.Model(&models.AuditLogEntry{}).
		Where("action = ? AND resource_id = ?", "order.create", order.ID.String()).
		Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("audit entries = %d, want 1", auditCount)
	}
}

func TestCreateOrderCreditDebitsBalance(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, -50, 100)
	product := env.seedProduct(t, "Olive Oil 5L", 40.00, 10)

	env.createOrder(t, retailer.ID, enums.PaymentMethodCredit, item(product.ID, 1, 40.00, 0, 0))

	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.NewFromFloat(-90)) {
		t.Errorf("balance = %s, want -90", got)
	}
}

func TestCreateOrderCreditLimitExceededRollsBack(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, -50, 100)
	product := env.seedProduct(t, "Olive Oil 5L", 60.00, 10)

	_, err := env.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailer.ID,
		Items:           []ItemInput{item(product.ID, 1, 60.00, 0, 0)},
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   enums.PaymentMethodCredit,
		Actor:           "retailer:" + retailer.ID.String(),
	})
	wantCode(t, err, pkgerrors.CodePrecondition)

	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.NewFromFloat(-50)) {
		t.Errorf("balance = %s, want unchanged -50", got)
	}
	if got := env.stockOf(t, product.ID); got != 10 {
		t.Errorf("stock = %d, want unchanged 10", got)
	}
	var orderCount int64
	env.conn.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("orders persisted = %d, want 0", orderCount)
	}
}

func TestCreateOrderInactiveRetailer(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	env.conn.Model(&models.Retailer{}).Where("id = ?", retailer.ID).
		Update("status", enums.RetailerStatusSuspended)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)

	_, err := env.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailer.ID,
		Items:           []ItemInput{item(product.ID, 1, 30.00, 0, 0)},
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   enums.PaymentMethodCash,
		Actor:           "retailer:" + retailer.ID.String(),
	})
	coded := wantCode(t, err, pkgerrors.CodePrecondition)
	if coded.Message() != "Retailer is not active: Harbor Minimarkets" {
		t.Errorf("message = %q", coded.Message())
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)

	_, err := env.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailer.ID,
		Items:           []ItemInput{item(uuid.New(), 1, 10.00, 0, 0)},
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   enums.PaymentMethodCash,
		Actor:           "retailer:" + retailer.ID.String(),
	})
	wantCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Discontinued Soda", 5.00, 10)
	env.conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false)

	_, err := env.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailer.ID,
		Items:           []ItemInput{item(product.ID, 1, 5.00, 0, 0)},
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   enums.PaymentMethodCash,
		Actor:           "retailer:" + retailer.ID.String(),
	})
	coded := wantCode(t, err, pkgerrors.CodePrecondition)
	if coded.Message() != "Product is not active: Discontinued Soda" {
		t.Errorf("message = %q", coded.Message())
	}
}

func TestCreateOrderInsufficientStockLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	scarce := env.seedProduct(t, "Saffron 10g", 90.00, 2)
	plenty := env.seedProduct(t, "Flour 10kg", 12.00, 100)

	_, err := env.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailer.ID,
		Items:           []ItemInput{item(plenty.ID, 5, 12.00, 0, 0), item(scarce.ID, 3, 90.00, 0, 0)},
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   enums.PaymentMethodCash,
		Actor:           "retailer:" + retailer.ID.String(),
	})
	coded := wantCode(t, err, pkgerrors.CodePrecondition)
	if coded.Message() != "Insufficient stock for product: Saffron 10g" {
		t.Errorf("message = %q", coded.Message())
	}

	// The flour decrement applied first inside the transaction and must be
	// rolled back with everything else.
	if got := env.stockOf(t, plenty.ID); got != 100 {
		t.Errorf("flour stock = %d, want 100", got)
	}
	var orderCount int64
	env.conn.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("orders persisted = %d, want 0", orderCount)
	}
}

func TestCreateOrderLastUnit(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Limited Batch Honey", 25.00, 1)

	env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 25.00, 0, 0))

	_, err := env.svc.Create(context.Background(), CreateInput{
		RetailerID:      retailer.ID,
		Items:           []ItemInput{item(product.ID, 1, 25.00, 0, 0)},
		DeliveryAddress: "12 Quay Street",
		PaymentMethod:   enums.PaymentMethodCash,
		Actor:           "retailer:" + retailer.ID.String(),
	})
	wantCode(t, err, pkgerrors.CodePrecondition)
	if got := env.stockOf(t, product.ID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}

func TestUpdateStatusConfirmCreatesDelivery(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 2, 30.00, 0, 0))

	updated, err := env.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusConfirmed,
		Actor:   "admin:ops",
	})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != enums.OrderStatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
	if len(env.bridge.created) != 1 || env.bridge.created[0].ID != order.ID {
		t.Errorf("expected one delivery created for order %s", order.ID)
	}
}

func TestUpdateStatusDeliveryFailureDoesNotRollBack(t *testing.T) {
	env := newTestEnv(t)
	env.bridge.err = errors.New("delivery subsystem down")
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))

	updated, err := env.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusConfirmed,
		Actor:   "admin:ops",
	})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != enums.OrderStatusConfirmed {
		t.Errorf("status = %s, want confirmed despite delivery failure", updated.Status)
	}
}

func TestUpdateStatusInvalidTransitionMessage(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	env.setStatus(t, order.ID, enums.OrderStatusShipped)

	_, err := env.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusConfirmed,
		Actor:   "admin:ops",
	})
	coded := wantCode(t, err, pkgerrors.CodePrecondition)
	if coded.Message() != "Invalid status transition from shipped to confirmed" {
		t.Errorf("message = %q", coded.Message())
	}
}

func TestUpdateStatusTableIsTotal(t *testing.T) {
	allowed := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
		enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
		enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
		enums.OrderStatusDelivered:  {},
		enums.OrderStatusCancelled:  {},
	}
	all := []enums.OrderStatus{
		enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusProcessing,
		enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled,
	}

	for from, targets := range allowed {
		permitted := make(map[enums.OrderStatus]bool, len(targets))
		for _, target := range targets {
			permitted[target] = true
		}
		for _, to := range all {
			from, to := from, to
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				env := newTestEnv(t)
				retailer := env.seedRetailer(t, 0, 0)
				product := env.seedProduct(t, "Rice 25kg", 30.00, 50)
				order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
				env.setStatus(t, order.ID, from)

				_, err := env.svc.UpdateStatus(context.Background(), UpdateStatusInput{
					OrderID: order.ID,
					Status:  to,
					Actor:   "admin:ops",
				})
				if permitted[to] {
					if err != nil {
						t.Fatalf("transition %s -> %s should succeed, got %v", from, to, err)
					}
					return
				}
				wantCode(t, err, pkgerrors.CodePrecondition)
			})
		}
	}
}

func TestCancelConfirmedOrderRestoresStockAndBalance(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, -20, 200)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCredit, item(product.ID, 3, 30.00, 0, 0))

	if _, err := env.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID, Status: enums.OrderStatusConfirmed, Actor: "admin:ops",
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	cancelled, err := env.svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID,
		Reason:  "retailer request",
		Actor:   "retailer:" + retailer.ID.String(),
	})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if cancelled.Status != enums.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at not set")
	}
	if got := env.stockOf(t, product.ID); got != 10 {
		t.Errorf("stock = %d, want restored 10", got)
	}
	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.NewFromFloat(-20)) {
		t.Errorf("balance = %s, want restored -20", got)
	}

	reloaded, err := env.svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reloaded.Metadata.Cancellation == nil {
		t.Fatal("cancellation metadata missing")
	}
	if reloaded.Metadata.Cancellation.Reason != "retailer request" {
		t.Errorf("reason = %q", reloaded.Metadata.Cancellation.Reason)
	}
}

func TestCancelPendingOrderRestoresStockAndBalance(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 200)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCredit, item(product.ID, 2, 30.00, 0, 0))

	if _, err := env.svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID, Reason: "changed mind", Actor: "retailer:" + retailer.ID.String(),
	}); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	// The reservation happens at creation, so cancelling a pending order must
	// put the units back too, not just refund the debit.
	if got := env.stockOf(t, product.ID); got != 10 {
		t.Errorf("stock = %d, want restored 10", got)
	}
	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want 0", got)
	}
}

func TestUpdateStatusCancelledCompensates(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, -20, 200)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCredit, item(product.ID, 3, 30.00, 0, 0))

	updated, err := env.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusCancelled,
		Actor:   "admin:ops",
	})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}
	if updated.CancelledAt == nil {
		t.Error("cancelled_at not set")
	}
	if got := env.stockOf(t, product.ID); got != 10 {
		t.Errorf("stock = %d, want restored 10", got)
	}
	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.NewFromFloat(-20)) {
		t.Errorf("balance = %s, want restored -20", got)
	}

	reloaded, err := env.svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reloaded.Metadata.Cancellation == nil {
		t.Fatal("cancellation metadata missing")
	}
	if reloaded.Metadata.Cancellation.CancelledBy != "admin:ops" {
		t.Errorf("cancelled_by = %q", reloaded.Metadata.Cancellation.CancelledBy)
	}
}

func TestBulkUpdateStatusCancelledCompensates(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	first := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 2, 30.00, 0, 0))
	second := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 3, 30.00, 0, 0))

	result, err := env.svc.BulkUpdateStatus(context.Background(), BulkUpdateStatusInput{
		OrderIDs: []uuid.UUID{first.ID, second.ID},
		Status:   enums.OrderStatusCancelled,
		Actor:    "admin:ops",
	})
	if err != nil {
		t.Fatalf("BulkUpdateStatus() error = %v", err)
	}
	if result.UpdatedCount != 2 {
		t.Errorf("updated count = %d, want 2", result.UpdatedCount)
	}
	if got := env.stockOf(t, product.ID); got != 10 {
		t.Errorf("stock = %d, want restored 10", got)
	}
}

func TestCancelTerminalOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	env.setStatus(t, order.ID, enums.OrderStatusDelivered)

	_, err := env.svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID, Reason: "too late", Actor: "admin:ops",
	})
	coded := wantCode(t, err, pkgerrors.CodePrecondition)
	if coded.Message() != "Order cannot be cancelled in status delivered" {
		t.Errorf("message = %q", coded.Message())
	}
}

func TestBulkUpdateStatusAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 50)
	valid := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	invalid := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	env.setStatus(t, invalid.ID, enums.OrderStatusShipped)

	_, err := env.svc.BulkUpdateStatus(context.Background(), BulkUpdateStatusInput{
		OrderIDs: []uuid.UUID{valid.ID, invalid.ID},
		Status:   enums.OrderStatusConfirmed,
		Actor:    "admin:ops",
	})
	coded := wantCode(t, err, pkgerrors.CodePrecondition)

	details, ok := coded.Details().(map[string]any)
	if !ok {
		t.Fatalf("details = %#v", coded.Details())
	}
	offending, ok := details["order_ids"].([]string)
	if !ok || len(offending) != 1 || offending[0] != invalid.ID.String() {
		t.Errorf("offending ids = %#v", details["order_ids"])
	}

	reloaded, err := env.svc.Get(context.Background(), valid.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reloaded.Status != enums.OrderStatusPending {
		t.Errorf("valid order status = %s, want untouched pending", reloaded.Status)
	}
}

func TestBulkUpdateStatusAppliesWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 50)
	first := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	second := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))

	result, err := env.svc.BulkUpdateStatus(context.Background(), BulkUpdateStatusInput{
		OrderIDs: []uuid.UUID{first.ID, second.ID},
		Status:   enums.OrderStatusConfirmed,
		Actor:    "admin:ops",
	})
	if err != nil {
		t.Fatalf("BulkUpdateStatus() error = %v", err)
	}
	if result.UpdatedCount != 2 {
		t.Errorf("updated count = %d, want 2", result.UpdatedCount)
	}
	if len(env.bridge.created) != 2 {
		t.Errorf("deliveries created = %d, want 2", len(env.bridge.created))
	}
}

func TestBulkUpdateStatusMissingOrders(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 50)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))

	_, err := env.svc.BulkUpdateStatus(context.Background(), BulkUpdateStatusInput{
		OrderIDs: []uuid.UUID{order.ID, uuid.New()},
		Status:   enums.OrderStatusConfirmed,
		Actor:    "admin:ops",
	})
	wantCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateOrderReplacesItems(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 500)
	water := env.seedProduct(t, "Mineral Water 1L", 10.00, 20)
	coffee := env.seedProduct(t, "Coffee Beans 1kg", 50.00, 5)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCredit, item(water.ID, 4, 10.00, 0, 0))

	updated, err := env.svc.Update(context.Background(), UpdateInput{
		OrderID: order.ID,
		Items:   []ItemInput{item(coffee.ID, 2, 50.00, 0, 0)},
		Actor:   "retailer:" + retailer.ID.String(),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !updated.TotalAmount.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("total = %s, want 100", updated.TotalAmount)
	}
	if got := env.stockOf(t, water.ID); got != 20 {
		t.Errorf("water stock = %d, want restored 20", got)
	}
	if got := env.stockOf(t, coffee.ID); got != 3 {
		t.Errorf("coffee stock = %d, want 3", got)
	}
	// Old debit of 40 released, new debit of 100 applied.
	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.NewFromFloat(-100)) {
		t.Errorf("balance = %s, want -100", got)
	}

	reloaded, err := env.svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(reloaded.Items) != 1 || reloaded.Items[0].ProductID != coffee.ID {
		t.Errorf("items not replaced: %#v", reloaded.Items)
	}
}

func TestUpdateOrderNonPendingRejected(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	env.setStatus(t, order.ID, enums.OrderStatusConfirmed)

	_, err := env.svc.Update(context.Background(), UpdateInput{
		OrderID: order.ID,
		Items:   []ItemInput{item(product.ID, 2, 30.00, 0, 0)},
		Actor:   "retailer:" + retailer.ID.String(),
	})
	wantCode(t, err, pkgerrors.CodePrecondition)
}

func TestUpdateOrderFailedReservationRollsBackEverything(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 500)
	water := env.seedProduct(t, "Mineral Water 1L", 10.00, 20)
	scarce := env.seedProduct(t, "Saffron 10g", 90.00, 1)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCredit, item(water.ID, 4, 10.00, 0, 0))

	_, err := env.svc.Update(context.Background(), UpdateInput{
		OrderID: order.ID,
		Items:   []ItemInput{item(scarce.ID, 3, 90.00, 0, 0)},
		Actor:   "retailer:" + retailer.ID.String(),
	})
	wantCode(t, err, pkgerrors.CodePrecondition)

	// The retract-and-redo must leave no footprint: original reservation,
	// items and balance all intact.
	if got := env.stockOf(t, water.ID); got != 16 {
		t.Errorf("water stock = %d, want 16", got)
	}
	if got := env.stockOf(t, scarce.ID); got != 1 {
		t.Errorf("saffron stock = %d, want 1", got)
	}
	if got := env.balanceOf(t, retailer.ID); !got.Equal(decimal.NewFromFloat(-40)) {
		t.Errorf("balance = %s, want -40", got)
	}
	reloaded, err := env.svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(reloaded.Items) != 1 || reloaded.Items[0].ProductID != water.ID {
		t.Errorf("items changed: %#v", reloaded.Items)
	}
}

func TestMarkDeliveredMovesShippedOrder(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 10)
	order := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	env.setStatus(t, order.ID, enums.OrderStatusShipped)

	if err := env.svc.MarkDelivered(context.Background(), order.ID, "delivery:bridge"); err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}
	reloaded, err := env.svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reloaded.Status != enums.OrderStatusDelivered {
		t.Errorf("status = %s, want delivered", reloaded.Status)
	}
	if reloaded.DeliveredAt == nil {
		t.Error("delivered_at not set")
	}
}

func TestStatsEmptyWindowReturnsZeros(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.svc.Stats(context.Background(), StatsFilters{})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalOrders != 0 {
		t.Errorf("total orders = %d, want 0", stats.TotalOrders)
	}
	if !stats.TotalRevenue.Equal(decimal.Zero) {
		t.Errorf("revenue = %s, want 0", stats.TotalRevenue)
	}
	if !stats.AverageOrderValue.Equal(decimal.Zero) {
		t.Errorf("average = %s, want 0", stats.AverageOrderValue)
	}
	if stats.WeekOverWeekPct != nil {
		t.Errorf("week over week = %v, want nil", *stats.WeekOverWeekPct)
	}
}

func TestStatsAggregates(t *testing.T) {
	env := newTestEnv(t)
	retailer := env.seedRetailer(t, 0, 0)
	product := env.seedProduct(t, "Rice 25kg", 30.00, 100)
	first := env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 1, 30.00, 0, 0))
	env.createOrder(t, retailer.ID, enums.PaymentMethodCash, item(product.ID, 2, 30.00, 0, 0))
	env.setStatus(t, first.ID, enums.OrderStatusConfirmed)

	stats, err := env.svc.Stats(context.Background(), StatsFilters{RetailerID: &retailer.ID})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalOrders != 2 {
		t.Errorf("total orders = %d, want 2", stats.TotalOrders)
	}
	if !stats.TotalRevenue.Equal(decimal.NewFromFloat(90.00)) {
		t.Errorf("revenue = %s, want 90", stats.TotalRevenue)
	}
	if !stats.AverageOrderValue.Equal(decimal.NewFromFloat(45.00)) {
		t.Errorf("average = %s, want 45", stats.AverageOrderValue)
	}
	if stats.CountsByStatus["pending"] != 1 || stats.CountsByStatus["confirmed"] != 1 {
		t.Errorf("counts = %#v", stats.CountsByStatus)
	}
}
