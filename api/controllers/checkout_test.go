package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	checkoutsvc "github.com/tuanminhdo/fashionshop-backend/internal/checkout"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
)

type stubCheckoutService struct {
	fromCartFn func(ctx context.Context, userID uuid.UUID, input checkoutsvc.CheckoutInput) (*models.Order, error)
	directFn   func(ctx context.Context, userID uuid.UUID, items []checkoutsvc.DirectItem, input checkoutsvc.CheckoutInput) (*models.Order, error)
	cancelFn   func(ctx context.Context, userID uuid.UUID, idOrCode, reason string) (*models.Order, error)
}

func (s *stubCheckoutService) FromCart(ctx context.Context, userID uuid.UUID, input checkoutsvc.CheckoutInput) (*models.Order, error) {
	if s.fromCartFn != nil {
		return s.fromCartFn(ctx, userID, input)
	}
	return &models.Order{}, nil
}

func (s *stubCheckoutService) Direct(ctx context.Context, userID uuid.UUID, items []checkoutsvc.DirectItem, input checkoutsvc.CheckoutInput) (*models.Order, error) {
	if s.directFn != nil {
		return s.directFn(ctx, userID, items, input)
	}
	return &models.Order{}, nil
}

func (s *stubCheckoutService) Cancel(ctx context.Context, userID uuid.UUID, idOrCode, reason string) (*models.Order, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, userID, idOrCode, reason)
	}
	return &models.Order{}, nil
}

const checkoutBody = `{
	"payment_method": "cod",
	"shipping_address": {
		"full_name": "Nguyen Van A",
		"phone": "0901234567",
		"line1": "12 Ly Thuong Kiet",
		"ward": "Phuong 7",
		"district": "Quan 3",
		"city": "Ho Chi Minh",
		"country": "VN"
	}
}`

func TestCheckoutFromCartSuccess(t *testing.T) {
	userID := uuid.New()
	var captured checkoutsvc.CheckoutInput
	order := &models.Order{
		ID:     uuid.New(),
		Code:   "FSH-2026-000042",
		Status: enums.OrderStatusPending,
		Total:  decimal.NewFromInt(480000),
	}
	svc := &stubCheckoutService{
		fromCartFn: func(ctx context.Context, id uuid.UUID, input checkoutsvc.CheckoutInput) (*models.Order, error) {
			if id != userID {
				t.Fatalf("unexpected user %s", id)
			}
			captured = input
			return order, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	req.Header.Set(idempotencyKeyHeader, "chk-123")
	req = asUser(req, userID, enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	CheckoutFromCart(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusCreated)
	if captured.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("unexpected payment method %s", captured.PaymentMethod)
	}
	if captured.IdempotencyKey != "chk-123" {
		t.Fatalf("unexpected idempotency key %q", captured.IdempotencyKey)
	}
	if captured.ShippingAddress.City != "Ho Chi Minh" {
		t.Fatalf("unexpected address %+v", captured.ShippingAddress)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Code != order.Code {
		t.Fatalf("unexpected order code %s", envelope.Data.Code)
	}
}

func TestCheckoutFromCartInvalidPaymentMethod(t *testing.T) {
	body := strings.Replace(checkoutBody, `"cod"`, `"cheque"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	CheckoutFromCart(&stubCheckoutService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestCheckoutFromCartMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	resp := httptest.NewRecorder()
	CheckoutFromCart(&stubCheckoutService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusUnauthorized)
}

func TestCheckoutDirectSuccess(t *testing.T) {
	userID := uuid.New()
	var captured []checkoutsvc.DirectItem
	svc := &stubCheckoutService{
		directFn: func(ctx context.Context, id uuid.UUID, items []checkoutsvc.DirectItem, input checkoutsvc.CheckoutInput) (*models.Order, error) {
			captured = items
			return &models.Order{UserID: id}, nil
		},
	}

	body := strings.Replace(checkoutBody, `{`, `{"items":[{"sku":"TSH-RED-M","quantity":2}],`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/direct", strings.NewReader(body))
	req = asUser(req, userID, enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	CheckoutDirect(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusCreated)
	if len(captured) != 1 || captured[0].SKU != "TSH-RED-M" || captured[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", captured)
	}
}

func TestCheckoutDirectRequiresItems(t *testing.T) {
	body := strings.Replace(checkoutBody, `{`, `{"items":[],`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/direct", strings.NewReader(body))
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	CheckoutDirect(&stubCheckoutService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestCancelOrderSuccess(t *testing.T) {
	userID := uuid.New()
	var gotIDOrCode, gotReason string
	svc := &stubCheckoutService{
		cancelFn: func(ctx context.Context, id uuid.UUID, idOrCode, reason string) (*models.Order, error) {
			gotIDOrCode = idOrCode
			gotReason = reason
			return &models.Order{UserID: id, Status: enums.OrderStatusCancelled}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/FSH-2026-000042/cancel", strings.NewReader(`{"reason":"changed my mind"}`))
	req = asUser(req, userID, enums.UserRoleCustomer)
	req = addRouteParam(req, "idOrCode", "FSH-2026-000042")
	resp := httptest.NewRecorder()
	CancelOrder(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if gotIDOrCode != "FSH-2026-000042" {
		t.Fatalf("unexpected id or code %s", gotIDOrCode)
	}
	if gotReason != "changed my mind" {
		t.Fatalf("unexpected reason %q", gotReason)
	}
}

func TestCancelOrderStateConflict(t *testing.T) {
	svc := &stubCheckoutService{
		cancelFn: func(ctx context.Context, id uuid.UUID, idOrCode, reason string) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipping")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/FSH-2026-000042/cancel", strings.NewReader(`{"reason":"late"}`))
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	req = addRouteParam(req, "idOrCode", "FSH-2026-000042")
	resp := httptest.NewRecorder()
	CancelOrder(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusUnprocessableEntity)
}
