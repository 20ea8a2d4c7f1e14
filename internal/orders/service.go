package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/audit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/credit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/products"
	"github.com/veloplane-b2b/orderdesk-backend/internal/retailers"
	"github.com/veloplane-b2b/orderdesk-backend/internal/stock"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/metrics"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/pagination"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the order engine. Every mutation runs in one database
// transaction; stock and balance mutations go exclusively through the stock
// and credit services.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Update(ctx context.Context, input UpdateInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	BulkUpdateStatus(ctx context.Context, input BulkUpdateStatusInput) (*BulkUpdateResult, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID, actor string) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) (*OrderList, error)
	Stats(ctx context.Context, filters StatsFilters) (*Stats, error)
}

type service struct {
	repo      Repository
	retailers retailers.Repository
	products  products.Repository
	stock     stock.Service
	credit    credit.Service
	audit     audit.Service
	delivery  DeliveryBridge
	tx        txRunner
	metrics   *metrics.OrderEngineMetrics
	logg      *logger.Logger
}

// NewService wires the order engine with its collaborators.
func NewService(
	repo Repository,
	retailerRepo retailers.Repository,
	productRepo products.Repository,
	stockSvc stock.Service,
	creditSvc credit.Service,
	auditSvc audit.Service,
	deliveryBridge DeliveryBridge,
	tx txRunner,
	engineMetrics *metrics.OrderEngineMetrics,
	logg *logger.Logger,
) Service {
	return &service{
		repo:      repo,
		retailers: retailerRepo,
		products:  productRepo,
		stock:     stockSvc,
		credit:    creditSvc,
		audit:     auditSvc,
		delivery:  deliveryBridge,
		tx:        tx,
		metrics:   engineMetrics,
		logg:      logg,
	}
}

func (s *service) observe(operation string, start time.Time, err error) {
	s.metrics.ObserveDuration(operation, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(operation)
		return
	}
	s.metrics.IncSuccess(operation)
}

// computedLine pairs one validated input line with its money breakdown.
type computedLine struct {
	item  models.OrderItem
	total decimal.Decimal
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() || item.TaxAmount.IsNegative() || item.DiscountAmount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item amounts must not be negative")
		}
	}
	return nil
}

// buildLines validates products and computes per-line and order totals.
// Caller is responsible for the stock reservation itself.
func (s *service) buildLines(ctx context.Context, tx *gorm.DB, items []ItemInput) ([]computedLine, *models.Order, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(catalog))
	for _, product := range catalog {
		byID[product.ID] = product
	}

	totals := &models.Order{
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
	lines := make([]computedLine, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product not found: %s", item.ProductID))
		}
		if !product.IsActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodePrecondition, fmt.Sprintf("Product is not active: %s", product.Name))
		}

		lineSubtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lineTotal := lineSubtotal.Add(item.TaxAmount).Sub(item.DiscountAmount)

		totals.Subtotal = totals.Subtotal.Add(lineSubtotal)
		totals.TaxAmount = totals.TaxAmount.Add(item.TaxAmount)
		totals.DiscountAmount = totals.DiscountAmount.Add(item.DiscountAmount)
		totals.TotalAmount = totals.TotalAmount.Add(lineTotal)

		lines = append(lines, computedLine{
			item: models.OrderItem{
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				TaxAmount:      item.TaxAmount,
				DiscountAmount: item.DiscountAmount,
				TotalPrice:     lineTotal,
			},
			total: lineTotal,
		})
	}
	return lines, totals, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (order *models.Order, err error) {
	defer func(start time.Time) { s.observe("create_order", start, err) }(time.Now())

	if input.RetailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}
	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method: %s", input.PaymentMethod))
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	order, err = s.createOnce(ctx, input)
	if err != nil && db.IsUniqueViolation(err, "order_number") {
		// Collisions on the generated number are practically unreachable;
		// one regenerate-and-retry covers the rest, then it is a conflict.
		order, err = s.createOnce(ctx, input)
		if err != nil && db.IsUniqueViolation(err, "order_number") {
			err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision")
		}
	}
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order.created")
	return order, nil
}

func (s *service) createOnce(ctx context.Context, input CreateInput) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		retailer, err := s.retailers.WithTx(tx).FindByID(ctx, input.RetailerID)
		if err != nil {
			return err
		}
		if retailer.Status != enums.RetailerStatusActive {
			return pkgerrors.New(pkgerrors.CodePrecondition, fmt.Sprintf("Retailer is not active: %s", retailer.CompanyName))
		}

		lines, totals, err := s.buildLines(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:     generateOrderNumber(time.Now().UTC()),
			RetailerID:      input.RetailerID,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   input.PaymentMethod,
			Subtotal:        totals.Subtotal,
			TaxAmount:       totals.TaxAmount,
			DiscountAmount:  totals.DiscountAmount,
			TotalAmount:     totals.TotalAmount,
			DeliveryAddress: input.DeliveryAddress,
		}
		for _, line := range lines {
			order.Items = append(order.Items, line.item)
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		for _, line := range lines {
			if err := s.stock.Decrement(ctx, tx, line.item.ProductID, line.item.Quantity); err != nil {
				return err
			}
		}
		if input.PaymentMethod == enums.PaymentMethodCredit {
			if err := s.credit.AdjustBalance(ctx, tx, input.RetailerID, order.TotalAmount.Neg(), true); err != nil {
				return err
			}
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "order.create",
			ResourceType: "order",
			ResourceID:   order.ID.String(),
			NewValues:    order,
		}); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (order *models.Order, err error) {
	defer func(start time.Time) { s.observe("update_order", start, err) }(time.Now())

	if input.Items != nil {
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
	}
	if input.DeliveryAddress != nil && *input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address must not be empty")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("Only pending orders can be updated, current status is %s", current.Status))
		}

		previousTotals := map[string]string{
			"subtotal":     current.Subtotal.String(),
			"tax_amount":   current.TaxAmount.String(),
			"total_amount": current.TotalAmount.String(),
		}
		updates := map[string]any{}
		if input.DeliveryAddress != nil {
			updates["delivery_address"] = *input.DeliveryAddress
			current.DeliveryAddress = *input.DeliveryAddress
		}

		if input.Items != nil {
			// Retract and redo: put every reserved unit back, swap the lines,
			// reserve again. The surrounding transaction makes a partial redo
			// impossible to observe.
			for _, item := range current.Items {
				if err := s.stock.Increment(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}

			lines, totals, err := s.buildLines(ctx, tx, input.Items)
			if err != nil {
				return err
			}
			newItems := make([]models.OrderItem, 0, len(lines))
			for _, line := range lines {
				item := line.item
				item.OrderID = current.ID
				newItems = append(newItems, item)
			}
			if err := txRepo.ReplaceItems(ctx, current.ID, newItems); err != nil {
				return err
			}
			for _, line := range lines {
				if err := s.stock.Decrement(ctx, tx, line.item.ProductID, line.item.Quantity); err != nil {
					return err
				}
			}

			if current.PaymentMethod == enums.PaymentMethodCredit {
				// Release the old debit unconditionally, then re-debit the new
				// total against the limit.
				if err := s.credit.AdjustBalance(ctx, tx, current.RetailerID, current.TotalAmount, false); err != nil {
					return err
				}
				if err := s.credit.AdjustBalance(ctx, tx, current.RetailerID, totals.TotalAmount.Neg(), true); err != nil {
					return err
				}
			}

			updates["subtotal"] = totals.Subtotal
			updates["tax_amount"] = totals.TaxAmount
			updates["discount_amount"] = totals.DiscountAmount
			updates["total_amount"] = totals.TotalAmount
			current.Subtotal = totals.Subtotal
			current.TaxAmount = totals.TaxAmount
			current.DiscountAmount = totals.DiscountAmount
			current.TotalAmount = totals.TotalAmount
			current.Items = newItems
		}

		if len(updates) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
		}
		if err := txRepo.Update(ctx, current.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "order.update",
			ResourceType: "order",
			ResourceID:   current.ID.String(),
			OldValues:    previousTotals,
			NewValues: map[string]string{
				"subtotal":     current.Subtotal.String(),
				"tax_amount":   current.TaxAmount.String(),
				"total_amount": current.TotalAmount.String(),
			},
		}); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (order *models.Order, err error) {
	defer func(start time.Time) { s.observe("update_status", start, err) }(time.Now())

	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status: %s", input.Status))
	}

	var updated *models.Order
	var confirmed bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		wentConfirmed, err := s.applyTransition(ctx, tx, current, input.Status, input.Notes, input.Actor)
		if err != nil {
			return err
		}
		confirmed = wentConfirmed
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		s.createDeliveryBestEffort(ctx, updated)
	}
	return updated, nil
}

// applyTransition validates and applies one state-machine step for the loaded
// order, mutating it in place on success. Returns whether the order just
// entered confirmed from pending.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, current *models.Order, next enums.OrderStatus, notes *string, actor string) (bool, error) {
	if !current.Status.CanTransitionTo(next) {
		return false, pkgerrors.New(pkgerrors.CodePrecondition,
			fmt.Sprintf("Invalid status transition from %s to %s", current.Status, next))
	}

	extra := map[string]any{}
	var deliveredAt, cancelledAt *time.Time
	metadata := current.Metadata
	switch next {
	case enums.OrderStatusDelivered:
		now := time.Now().UTC()
		deliveredAt = &now
		extra["delivered_at"] = now
	case enums.OrderStatusCancelled:
		// Cancellation through the status route compensates exactly like
		// Cancel does, so no path can strand reserved stock or a debit.
		if err := s.compensate(ctx, tx, current); err != nil {
			return false, err
		}
		now := time.Now().UTC()
		cancelledAt = &now
		metadata.Cancellation = &types.CancellationInfo{
			Reason:      "cancelled via status update",
			Notes:       notes,
			CancelledAt: now,
			CancelledBy: actor,
		}
		extra["cancelled_at"] = now
		extra["metadata"] = metadata
	}

	applied, err := s.repo.WithTx(tx).UpdateStatusIfCurrent(ctx, current.ID, current.Status, next, extra)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("order %s was modified concurrently", current.ID))
	}

	newValues := map[string]any{"status": next.String()}
	if notes != nil {
		newValues["notes"] = *notes
	}
	if err := s.audit.Record(ctx, tx, audit.Entry{
		Actor:        actor,
		Action:       "order.status_update",
		ResourceType: "order",
		ResourceID:   current.ID.String(),
		OldValues:    map[string]string{"status": current.Status.String()},
		NewValues:    newValues,
	}); err != nil {
		return false, err
	}

	wasPending := current.Status == enums.OrderStatusPending
	current.Status = next
	current.DeliveredAt = deliveredAt
	current.CancelledAt = cancelledAt
	current.Metadata = metadata
	return wasPending && next == enums.OrderStatusConfirmed, nil
}

// createDeliveryBestEffort hands the confirmed order to the delivery bridge.
// The status change already committed; a failure here is logged, not rolled
// back.
func (s *service) createDeliveryBestEffort(ctx context.Context, order *models.Order) {
	if s.delivery == nil {
		return
	}
	if _, err := s.delivery.CreateForOrder(ctx, order); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "delivery.create_failed", err)
	}
}

func (s *service) BulkUpdateStatus(ctx context.Context, input BulkUpdateStatusInput) (result *BulkUpdateResult, err error) {
	defer func(start time.Time) { s.observe("bulk_update_status", start, err) }(time.Now())

	if len(input.OrderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ids are required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status: %s", input.Status))
	}

	var confirmedOrders []*models.Order
	var updatedOrders []models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		batch, err := txRepo.FindByIDs(ctx, input.OrderIDs)
		if err != nil {
			return err
		}

		found := make(map[uuid.UUID]bool, len(batch))
		for _, order := range batch {
			found[order.ID] = true
		}
		var missing []string
		for _, id := range input.OrderIDs {
			if !found[id] {
				missing = append(missing, id.String())
			}
		}
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "orders not found").
				WithDetails(map[string]any{"order_ids": missing})
		}

		// Validate the whole batch before touching any row: one invalid
		// transition fails the entire request with the offending ids.
		var offending []string
		var validationErr error
		for _, order := range batch {
			if !order.Status.CanTransitionTo(input.Status) {
				offending = append(offending, order.ID.String())
				validationErr = multierr.Append(validationErr,
					fmt.Errorf("order %s: invalid status transition from %s to %s", order.ID, order.Status, input.Status))
			}
		}
		if len(offending) > 0 {
			return pkgerrors.Wrap(pkgerrors.CodePrecondition, validationErr, "Invalid status transitions in batch").
				WithDetails(map[string]any{"order_ids": offending})
		}

		for i := range batch {
			order := &batch[i]
			wentConfirmed, err := s.applyTransition(ctx, tx, order, input.Status, input.Notes, input.Actor)
			if err != nil {
				return err
			}
			if wentConfirmed {
				confirmedOrders = append(confirmedOrders, order)
			}
		}
		updatedOrders = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, order := range confirmedOrders {
		s.createDeliveryBestEffort(ctx, order)
	}
	return &BulkUpdateResult{UpdatedCount: len(updatedOrders), Orders: updatedOrders}, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (order *models.Order, err error) {
	defer func(start time.Time) { s.observe("cancel_order", start, err) }(time.Now())

	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}

	var cancelled *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("Order cannot be cancelled in status %s", current.Status))
		}

		snapshot := map[string]string{
			"status":       current.Status.String(),
			"total_amount": current.TotalAmount.String(),
		}

		if err := s.compensate(ctx, tx, current); err != nil {
			return err
		}

		now := time.Now().UTC()
		cancellation := &types.CancellationInfo{
			Reason:      input.Reason,
			Notes:       input.Notes,
			CancelledAt: now,
			CancelledBy: input.Actor,
		}
		metadata := current.Metadata
		metadata.Cancellation = cancellation

		applied, err := txRepo.UpdateStatusIfCurrent(ctx, current.ID, current.Status, enums.OrderStatusCancelled, map[string]any{
			"cancelled_at": now,
			"metadata":     metadata,
		})
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order %s was modified concurrently", current.ID))
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:        input.Actor,
			Action:       "order.cancel",
			ResourceType: "order",
			ResourceID:   current.ID.String(),
			OldValues:    snapshot,
			NewValues:    cancellation,
		}); err != nil {
			return err
		}

		current.Status = enums.OrderStatusCancelled
		current.CancelledAt = &now
		current.Metadata = metadata
		cancelled = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, cancelled.ID.String()), "order.cancelled")
	return cancelled, nil
}

// compensate reverses the resource effects of cancelling an order. Stock is
// reserved at creation, so every cancellable status holds reserved units;
// credit debits are refunded without the limit check, since crediting back
// only moves the balance toward solvency.
func (s *service) compensate(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if err := s.stock.Increment(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	if order.PaymentMethod == enums.PaymentMethodCredit {
		if err := s.credit.AdjustBalance(ctx, tx, order.RetailerID, order.TotalAmount, false); err != nil {
			return err
		}
	}
	return nil
}

// MarkDelivered is the delivery subsystem's feedback hook: a terminal
// delivered delivery moves its shipped order to delivered through the same
// state machine as any other transition.
func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID, actor string) error {
	_, err := s.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: orderID,
		Status:  enums.OrderStatusDelivered,
		Actor:   actor,
	})
	return err
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filters ListFilters) (*OrderList, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(filters.Pagination.Limit)
	list := &OrderList{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		list.HasMore = true
		last := list.Orders[limit-1]
		list.NextCursor = pagination.NextCursorFrom(last.CreatedAt, last.ID)
	}
	return list, nil
}

func (s *service) Stats(ctx context.Context, filters StatsFilters) (stats *Stats, err error) {
	defer func(start time.Time) { s.observe("get_order_stats", start, err) }(time.Now())

	counts, err := s.repo.CountByStatus(ctx, filters)
	if err != nil {
		return nil, err
	}
	revenue, total, err := s.repo.RevenueBetween(ctx, filters.RetailerID, filters.DateFrom, filters.DateTo)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	thisWeek, _, err := s.repo.RevenueBetween(ctx, filters.RetailerID, &weekAgo, &now)
	if err != nil {
		return nil, err
	}
	lastWeek, _, err := s.repo.RevenueBetween(ctx, filters.RetailerID, &twoWeeksAgo, &weekAgo)
	if err != nil {
		return nil, err
	}

	result := &Stats{
		TotalOrders:       total,
		CountsByStatus:    make(map[string]int64, len(counts)),
		TotalRevenue:      revenue,
		AverageOrderValue: decimal.Zero,
		RevenueThisWeek:   thisWeek,
		RevenueLastWeek:   lastWeek,
	}
	for status, count := range counts {
		result.CountsByStatus[status.String()] = count
	}
	if total > 0 {
		result.AverageOrderValue = revenue.Div(decimal.NewFromInt(total)).Round(2)
	}
	if lastWeek.IsPositive() {
		pct, _ := thisWeek.Sub(lastWeek).Div(lastWeek).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		result.WeekOverWeekPct = &pct
	}
	return result, nil
}
