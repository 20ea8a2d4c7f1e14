package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/repo"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/pagination"
)

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order not found: %s", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	var result []models.Order
	if len(ids) == 0 {
		return result, nil
	}
	err := r.DB(ctx).Preload("Items").Where("id IN ?", ids).Find(&result).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	return result, nil
}

func (r *gormRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *gormRepository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current, next enums.OrderStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": next}
	for column, value := range extra {
		updates[column] = value
	}
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, current).
		Updates(updates)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := r.DB(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order items")
	}
	if len(items) == 0 {
		return nil
	}
	if err := r.DB(ctx).Create(&items).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{}).Preload("Items")
	query = applyStatsWindow(query, StatsFilters{
		RetailerID: filters.RetailerID,
		DateFrom:   filters.DateFrom,
		DateTo:     filters.DateTo,
	})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(filters.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var result []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filters.Pagination.Limit)).
		Find(&result).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return result, nil
}

func (r *gormRepository) CountByStatus(ctx context.Context, filters StatsFilters) (map[enums.OrderStatus]int64, error) {
	type row struct {
		Status enums.OrderStatus
		Count  int64
	}
	var rows []row
	query := applyStatsWindow(r.DB(ctx).Model(&models.Order{}), filters)
	err := query.
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders by status")
	}

	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, entry := range rows {
		counts[entry.Status] = entry.Count
	}
	return counts, nil
}

func (r *gormRepository) RevenueBetween(ctx context.Context, retailerID *uuid.UUID, from, to *time.Time) (decimal.Decimal, int64, error) {
	type row struct {
		Revenue decimal.Decimal
		Count   int64
	}
	var result row
	query := applyStatsWindow(r.DB(ctx).Model(&models.Order{}), StatsFilters{
		RetailerID: retailerID,
		DateFrom:   from,
		DateTo:     to,
	})
	err := query.
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order revenue")
	}
	return result.Revenue, result.Count, nil
}

func applyStatsWindow(query *gorm.DB, filters StatsFilters) *gorm.DB {
	if filters.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filters.RetailerID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}
