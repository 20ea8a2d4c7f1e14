package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veloplane-b2b/orderdesk-backend/api/middleware"
	"github.com/veloplane-b2b/orderdesk-backend/api/responses"
	"github.com/veloplane-b2b/orderdesk-backend/api/validators"
	"github.com/veloplane-b2b/orderdesk-backend/internal/orders"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/pagination"
)

type orderItemPayload struct {
	ProductID      uuid.UUID       `json:"product_id" validate:"required"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"required"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type createOrderPayload struct {
	RetailerID      uuid.UUID          `json:"retailer_id" validate:"required"`
	Items           []orderItemPayload `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
}

type updateOrderPayload struct {
	Items           []orderItemPayload `json:"items" validate:"omitempty,min=1,dive"`
	DeliveryAddress *string            `json:"delivery_address"`
}

type updateOrderStatusPayload struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type bulkUpdateStatusPayload struct {
	OrderIDs []uuid.UUID `json:"order_ids" validate:"required,min=1"`
	Status   string      `json:"status" validate:"required"`
	Notes    *string     `json:"notes"`
}

type cancelOrderPayload struct {
	Reason string  `json:"reason" validate:"required"`
	Notes  *string `json:"notes"`
}

func toItemInputs(payloads []orderItemPayload) []orders.ItemInput {
	if payloads == nil {
		return nil
	}
	items := make([]orders.ItemInput, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, orders.ItemInput{
			ProductID:      p.ProductID,
			Quantity:       p.Quantity,
			UnitPrice:      p.UnitPrice,
			TaxAmount:      p.TaxAmount,
			DiscountAmount: p.DiscountAmount,
		})
	}
	return items
}

func actorFrom(r *http.Request) string {
	if actor := middleware.ActorFromContext(r.Context()); actor != "" {
		return actor
	}
	return "system"
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateInput{
			RetailerID:      payload.RetailerID,
			Items:           toItemInputs(payload.Items),
			DeliveryAddress: payload.DeliveryAddress,
			PaymentMethod:   method,
			Actor:           actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func UpdateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Update(r.Context(), orders.UpdateInput{
			OrderID:         orderID,
			Items:           toItemInputs(payload.Items),
			DeliveryAddress: payload.DeliveryAddress,
			Actor:           actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID: orderID,
			Status:  status,
			Notes:   payload.Notes,
			Actor:   actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func BulkUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkUpdateStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		result, err := svc.BulkUpdateStatus(r.Context(), orders.BulkUpdateStatusInput{
			OrderIDs: payload.OrderIDs,
			Status:   status,
			Notes:    payload.Notes,
			Actor:    actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cancelOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orders.CancelInput{
			OrderID: orderID,
			Reason:  payload.Reason,
			Notes:   payload.Notes,
			Actor:   actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderStats(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := buildStatsFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id").
			WithDetails(map[string]any{"order_id": raw})
	}
	return id, nil
}

func buildListFilters(r *http.Request) (orders.ListFilters, error) {
	filters := orders.ListFilters{}

	retailerID, err := parseRetailerScope(r)
	if err != nil {
		return filters, err
	}
	filters.RetailerID = retailerID

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		filters.Status = &status
	}

	filters.DateFrom, err = parseDateParam(r, "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateTo, err = parseDateParam(r, "date_to")
	if err != nil {
		return filters, err
	}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filters, err
	}
	filters.Pagination = pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	return filters, nil
}

func buildStatsFilters(r *http.Request) (orders.StatsFilters, error) {
	filters := orders.StatsFilters{}

	retailerID, err := parseRetailerScope(r)
	if err != nil {
		return filters, err
	}
	filters.RetailerID = retailerID

	filters.DateFrom, err = parseDateParam(r, "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateTo, err = parseDateParam(r, "date_to")
	if err != nil {
		return filters, err
	}
	return filters, nil
}

// parseRetailerScope prefers the gateway-scoped retailer over the query
// parameter so retailers can only see their own orders.
func parseRetailerScope(r *http.Request) (*uuid.UUID, error) {
	raw := middleware.RetailerIDFromContext(r.Context())
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("retailer_id"))
	}
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid retailer id").
			WithDetails(map[string]any{"retailer_id": raw})
	}
	return &id, nil
}

func parseDateParam(r *http.Request, field string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date parameter").
		WithDetails(map[string]any{"field": field, "expected": "RFC3339 or YYYY-MM-DD"})
}
