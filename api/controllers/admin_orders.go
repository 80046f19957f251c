package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tuanminhdo/fashionshop-backend/api/middleware"
	"github.com/tuanminhdo/fashionshop-backend/api/responses"
	"github.com/tuanminhdo/fashionshop-backend/api/validators"
	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/internal/orders"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/logger"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

// AdminListOrders lists all orders with optional status and user filters.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := parseOrdersQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("userId")); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
				return
			}
			query.UserID = userID
		}

		list, cursor, err := svc.ListAll(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(list, cursor))
	}
}

type transitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

// AdminTransitionOrder applies one status move through the state machine.
func AdminTransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		idOrCode := strings.TrimSpace(chi.URLParam(r, "idOrCode"))
		if idOrCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id or code is required"))
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role"))
			return
		}

		order, err := svc.Transition(r.Context(), orders.TransitionInput{
			IDOrCode:  idOrCode,
			Target:    target,
			ActorID:   actorID,
			ActorRole: role,
			Note:      payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminOrderLedger returns the inventory ledger rows correlated to an order
// code. The signed sum is included so reconciliation is visible at a glance.
func AdminOrderLedger(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order code is required"))
			return
		}

		entries, err := svc.ListByRef(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sum, err := svc.SumByRef(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ledgerResponse{
			RefID:   code,
			Entries: newLedgerEntries(entries),
			Sum:     sum,
		})
	}
}

// AdminInventoryLog lists the ledger for one SKU with cursor pagination.
func AdminInventoryLog(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, cursor, err := svc.ListBySKU(r.Context(), sku, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":  newLedgerEntries(entries),
			"cursor": cursor,
		})
	}
}

type ledgerResponse struct {
	RefID   string          `json:"ref_id"`
	Entries []ledgerEntryVM `json:"entries"`
	Sum     int             `json:"sum"`
}

type ledgerEntryVM struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	RefID     string    `json:"ref_id"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newLedgerEntries(entries []models.InventoryLogEntry) []ledgerEntryVM {
	out := make([]ledgerEntryVM, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ledgerEntryVM{
			ID:        entry.ID,
			ProductID: entry.ProductID,
			SKU:       entry.SKU,
			Delta:     entry.Delta,
			Reason:    string(entry.Reason),
			RefID:     entry.RefID,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}
