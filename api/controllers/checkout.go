package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuanminhdo/fashionshop-backend/api/responses"
	"github.com/tuanminhdo/fashionshop-backend/api/validators"
	checkoutsvc "github.com/tuanminhdo/fashionshop-backend/internal/checkout"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/logger"
	"github.com/tuanminhdo/fashionshop-backend/pkg/types"
)

const idempotencyKeyHeader = "Idempotency-Key"

type checkoutRequest struct {
	PaymentMethod   string                `json:"payment_method" validate:"required"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	Note            *string               `json:"note"`
}

type directCheckoutRequest struct {
	checkoutRequest
	Items []directItemPayload `json:"items" validate:"required,min=1,dive"`
}

type directItemPayload struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

func (r checkoutRequest) toInput(idempotencyKey string) (checkoutsvc.CheckoutInput, error) {
	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return checkoutsvc.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return checkoutsvc.CheckoutInput{
		PaymentMethod:   method,
		ShippingAddress: r.ShippingAddress,
		Note:            r.Note,
		IdempotencyKey:  idempotencyKey,
	}, nil
}

// CheckoutFromCart converts the caller's cart into an order.
func CheckoutFromCart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.FromCart(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// CheckoutDirect places a buy-now order without touching the cart.
func CheckoutDirect(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload directCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.DirectItem, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = checkoutsvc.DirectItem{
				SKU:      strings.TrimSpace(item.SKU),
				Quantity: item.Quantity,
			}
		}

		order, err := svc.Direct(r.Context(), userID, items, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder is customer self-service cancellation, allowed only while the
// order has not left the paid stage.
func CancelOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		idOrCode := strings.TrimSpace(chi.URLParam(r, "idOrCode"))
		if idOrCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id or code is required"))
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), userID, idOrCode, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
