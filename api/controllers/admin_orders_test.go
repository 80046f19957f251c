package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/internal/orders"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

type stubInventoryService struct {
	listBySKUFn func(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error)
	listByRefFn func(ctx context.Context, refID string) ([]models.InventoryLogEntry, error)
	sumByRefFn  func(ctx context.Context, refID string) (int, error)
}

func (s *stubInventoryService) Record(ctx context.Context, tx *gorm.DB, input inventory.RecordInput) (*models.InventoryLogEntry, error) {
	return nil, nil
}

func (s *stubInventoryService) ListBySKU(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error) {
	if s.listBySKUFn != nil {
		return s.listBySKUFn(ctx, sku, params)
	}
	return nil, "", nil
}

func (s *stubInventoryService) ListByRef(ctx context.Context, refID string) ([]models.InventoryLogEntry, error) {
	if s.listByRefFn != nil {
		return s.listByRefFn(ctx, refID)
	}
	return nil, nil
}

func (s *stubInventoryService) SumByRef(ctx context.Context, refID string) (int, error) {
	if s.sumByRefFn != nil {
		return s.sumByRefFn(ctx, refID)
	}
	return 0, nil
}

func TestAdminListOrdersFiltersByUser(t *testing.T) {
	targetUser := uuid.New()
	var captured orders.ListOrdersQuery
	svc := &stubOrdersService{
		listAllFn: func(ctx context.Context, query orders.ListOrdersQuery) ([]models.Order, string, error) {
			captured = query
			return nil, "", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?userId="+targetUser.String(), nil)
	req = asUser(req, uuid.New(), enums.UserRoleStaff)
	resp := httptest.NewRecorder()
	AdminListOrders(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.UserID != targetUser {
		t.Fatalf("unexpected user filter %s", captured.UserID)
	}
}

func TestAdminListOrdersRejectsBadUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?userId=not-a-uuid", nil)
	req = asUser(req, uuid.New(), enums.UserRoleStaff)
	resp := httptest.NewRecorder()
	AdminListOrders(&stubOrdersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestAdminTransitionOrderSuccess(t *testing.T) {
	actorID := uuid.New()
	var captured orders.TransitionInput
	svc := &stubOrdersService{
		transitionFn: func(ctx context.Context, input orders.TransitionInput) (*models.Order, error) {
			captured = input
			return &models.Order{Code: input.IDOrCode, Status: input.Target}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/FSH-2026-000042/transition", strings.NewReader(`{"status":"shipped","note":"handed to carrier"}`))
	req = asUser(req, actorID, enums.UserRoleStaff)
	req = addRouteParam(req, "idOrCode", "FSH-2026-000042")
	resp := httptest.NewRecorder()
	AdminTransitionOrder(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.Target != enums.OrderStatusShipped {
		t.Fatalf("unexpected target %s", captured.Target)
	}
	if captured.ActorID != actorID {
		t.Fatalf("unexpected actor %s", captured.ActorID)
	}
	if captured.ActorRole != enums.UserRoleStaff {
		t.Fatalf("unexpected role %s", captured.ActorRole)
	}
	if captured.Note == nil || *captured.Note != "handed to carrier" {
		t.Fatalf("unexpected note %+v", captured.Note)
	}
}

func TestAdminTransitionOrderRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/FSH-2026-000042/transition", strings.NewReader(`{"status":"vanished"}`))
	req = asUser(req, uuid.New(), enums.UserRoleStaff)
	req = addRouteParam(req, "idOrCode", "FSH-2026-000042")
	resp := httptest.NewRecorder()
	AdminTransitionOrder(&stubOrdersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestAdminOrderLedgerReturnsEntriesAndSum(t *testing.T) {
	code := "FSH-2026-000042"
	entries := []models.InventoryLogEntry{
		{ID: uuid.New(), SKU: "TSH-RED-M", Delta: -2, Reason: enums.InventoryReasonOrder, RefID: code},
		{ID: uuid.New(), SKU: "TSH-RED-M", Delta: 2, Reason: enums.InventoryReasonOrderCancelled, RefID: code},
	}
	svc := &stubInventoryService{
		listByRefFn: func(ctx context.Context, refID string) ([]models.InventoryLogEntry, error) {
			if refID != code {
				t.Fatalf("unexpected ref %s", refID)
			}
			return entries, nil
		},
		sumByRefFn: func(ctx context.Context, refID string) (int, error) {
			return 0, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/"+code+"/ledger", nil)
	req = asUser(req, uuid.New(), enums.UserRoleAdmin)
	req = addRouteParam(req, "code", code)
	resp := httptest.NewRecorder()
	AdminOrderLedger(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)

	var envelope struct {
		Data ledgerResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Entries) != 2 {
		t.Fatalf("unexpected entries %+v", envelope.Data.Entries)
	}
	if envelope.Data.Sum != 0 {
		t.Fatalf("unexpected sum %d", envelope.Data.Sum)
	}
}

func TestAdminInventoryLogPaginates(t *testing.T) {
	var captured pagination.Params
	svc := &stubInventoryService{
		listBySKUFn: func(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error) {
			captured = params
			return nil, "more", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/inventory/TSH-RED-M/log?limit=5&cursor=abc", nil)
	req = asUser(req, uuid.New(), enums.UserRoleAdmin)
	req = addRouteParam(req, "sku", "TSH-RED-M")
	resp := httptest.NewRecorder()
	AdminInventoryLog(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.Limit != 5 || captured.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", captured)
	}
}
