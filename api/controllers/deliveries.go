package controllers

import (
	"net/http"

	"github.com/veloplane-b2b/orderdesk-backend/api/responses"
	"github.com/veloplane-b2b/orderdesk-backend/api/validators"
	"github.com/veloplane-b2b/orderdesk-backend/internal/deliveries"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
)

type updateDeliveryStatusPayload struct {
	Status     string  `json:"status" validate:"required"`
	DriverName *string `json:"driver_name"`
}

func GetDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delivery, err := svc.GetByOrderID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

func UpdateDeliveryStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateDeliveryStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseDeliveryStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status"))
			return
		}
		delivery, err := svc.UpdateStatus(r.Context(), deliveries.UpdateStatusInput{
			OrderID:    orderID,
			Status:     status,
			DriverName: payload.DriverName,
			Actor:      actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}
