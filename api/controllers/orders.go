package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pluginbazaar/pluginbazaar-backend/api/responses"
	"github.com/pluginbazaar/pluginbazaar-backend/api/validators"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/orders"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
)

type orderCreateRequest struct {
	Number     string                 `json:"number" validate:"required"`
	Email      string                 `json:"email" validate:"required,email"`
	CouponCode *string                `json:"couponCode"`
	Currency   string                 `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
	LineItems  []orderLineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
}

type orderLineItemRequest struct {
	EditionID     *int64 `json:"editionId"`
	Description   string `json:"description"`
	Qty           int    `json:"qty"`
	Total         string `json:"total"`
	LicenseKey    string `json:"licenseKey"`
	CmsLicenseKey string `json:"cmsLicenseKey"`
}

func (r orderCreateRequest) toInput() orders.CreateOrderInput {
	items := make([]orders.CreateLineItemInput, len(r.LineItems))
	for i, item := range r.LineItems {
		items[i] = orders.CreateLineItemInput{
			EditionID:     item.EditionID,
			Description:   item.Description,
			Qty:           item.Qty,
			Total:         item.Total,
			LicenseKey:    item.LicenseKey,
			CmsLicenseKey: item.CmsLicenseKey,
		}
	}
	return orders.CreateOrderInput{
		Number:     r.Number,
		Email:      r.Email,
		CouponCode: r.CouponCode,
		Currency:   r.Currency,
		LineItems:  items,
	}
}

// OrderCreate takes a new order with its line items. Plugin line items must
// carry a license key, either a bare key for an upgrade or a "new:"-prefixed
// key for a fresh license.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// OrderMarkPaid flips a pending order to paid and queues the payment event
// the completion worker reacts to.
func OrderMarkPaid(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "orderNumber")
		if err := svc.MarkPaid(r.Context(), number); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"number": number, "status": "paid"})
	}
}

// OrderComplete runs the completion pass inline. Normally the worker drives
// this off the payment event; the endpoint exists for operator replays.
func OrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "orderNumber")
		if err := svc.Complete(r.Context(), number); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"number": number, "status": "complete"})
	}
}
