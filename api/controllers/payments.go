package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veloplane-b2b/orderdesk-backend/api/responses"
	"github.com/veloplane-b2b/orderdesk-backend/api/validators"
	"github.com/veloplane-b2b/orderdesk-backend/internal/payments"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
)

type recordPaymentPayload struct {
	RetailerID  uuid.UUID       `json:"retailer_id" validate:"required"`
	OrderID     *uuid.UUID      `json:"order_id"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentType string          `json:"payment_type" validate:"required"`
}

func RecordPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentType, err := enums.ParsePaymentType(payload.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type"))
			return
		}
		payment, err := svc.Record(r.Context(), payments.RecordInput{
			RetailerID:  payload.RetailerID,
			OrderID:     payload.OrderID,
			Amount:      payload.Amount,
			PaymentType: paymentType,
			Actor:       actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

func ListRetailerPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("retailer_id"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "retailer_id is required"))
			return
		}
		retailerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid retailer id").
				WithDetails(map[string]any{"retailer_id": raw}))
			return
		}
		list, err := svc.ListByRetailer(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
