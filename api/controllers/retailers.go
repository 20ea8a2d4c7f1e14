package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veloplane-b2b/orderdesk-backend/api/responses"
	"github.com/veloplane-b2b/orderdesk-backend/api/validators"
	"github.com/veloplane-b2b/orderdesk-backend/internal/retailers"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
)

type createRetailerPayload struct {
	CompanyName  string          `json:"company_name" validate:"required"`
	ContactEmail string          `json:"contact_email" validate:"required,email"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
}

type updateRetailerStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type overrideBalancePayload struct {
	NewBalance decimal.Decimal `json:"new_balance" validate:"required"`
	Reason     string          `json:"reason" validate:"required"`
}

func CreateRetailer(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRetailerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		retailer, err := svc.Create(r.Context(), retailers.CreateInput{
			CompanyName:  payload.CompanyName,
			ContactEmail: payload.ContactEmail,
			CreditLimit:  payload.CreditLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, retailer)
	}
}

func GetRetailer(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := parseRetailerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		retailer, err := svc.Get(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

func UpdateRetailerStatus(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := parseRetailerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateRetailerStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseRetailerStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid retailer status"))
			return
		}
		retailer, err := svc.UpdateStatus(r.Context(), retailerID, status, actorFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

func OverrideRetailerBalance(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := parseRetailerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload overrideBalancePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		retailer, err := svc.OverrideBalance(r.Context(), retailers.OverrideBalanceInput{
			RetailerID: retailerID,
			NewBalance: payload.NewBalance,
			Actor:      actorFrom(r),
			Reason:     payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

func parseRetailerID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "retailerId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid retailer id").
			WithDetails(map[string]any{"retailer_id": raw})
	}
	return id, nil
}
