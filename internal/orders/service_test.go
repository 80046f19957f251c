package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/outbox"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrderRepo struct {
	order          *models.Order
	timeline       []models.OrderTimelineEntry
	paymentUpdates []map[string]any
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	f.order = order
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.order
	return &clone, nil
}

func (f *fakeOrderRepo) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	if f.order == nil || f.order.Code != code {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.order
	return &clone, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, query ListOrdersQuery) ([]models.Order, string, error) {
	if f.order == nil {
		return nil, "", nil
	}
	if query.UserID != uuid.Nil && f.order.UserID != query.UserID {
		return nil, "", nil
	}
	if query.Status != nil && f.order.Status != *query.Status {
		return nil, "", nil
	}
	return []models.Order{*f.order}, "", nil
}

func (f *fakeOrderRepo) AppendTimeline(ctx context.Context, entry *models.OrderTimelineEntry) error {
	entry.ID = uuid.New()
	entry.Sequence = len(f.timeline) + 1
	f.timeline = append(f.timeline, *entry)
	return nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, updates map[string]any) error {
	if f.order == nil || f.order.ID != orderID || f.order.Status != from {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			"order left status "+from.String()+" before the update applied")
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		f.order.Status = status
	}
	if at, ok := updates["cancelled_at"].(time.Time); ok {
		f.order.CancelledAt = &at
	}
	if at, ok := updates["completed_at"].(time.Time); ok {
		f.order.CompletedAt = &at
	}
	return nil
}

func (f *fakeOrderRepo) UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	f.paymentUpdates = append(f.paymentUpdates, updates)
	if f.order.Payment != nil {
		if status, ok := updates["status"].(enums.PaymentStatus); ok {
			f.order.Payment.Status = status
		}
		if at, ok := updates["paid_at"].(time.Time); ok {
			f.order.Payment.PaidAt = &at
		}
	}
	return nil
}

func (f *fakeOrderRepo) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

type stockCredit struct {
	sku string
	qty int
}

type fakeStock struct {
	catalog.Repository
	credits []stockCredit
}

func (f *fakeStock) WithTx(tx *gorm.DB) catalog.Repository { return f }

func (f *fakeStock) CreditStock(ctx context.Context, sku string, qty int) error {
	f.credits = append(f.credits, stockCredit{sku: sku, qty: qty})
	return nil
}

type fakeLedger struct {
	records []inventory.RecordInput
}

func (f *fakeLedger) Record(ctx context.Context, tx *gorm.DB, input inventory.RecordInput) (*models.InventoryLogEntry, error) {
	f.records = append(f.records, input)
	return &models.InventoryLogEntry{}, nil
}

func (f *fakeLedger) ListBySKU(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error) {
	return nil, "", nil
}

func (f *fakeLedger) ListByRef(ctx context.Context, refID string) ([]models.InventoryLogEntry, error) {
	return nil, nil
}

func (f *fakeLedger) SumByRef(ctx context.Context, refID string) (int, error) {
	return 0, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type transitionFixture struct {
	svc     Service
	repo    *fakeOrderRepo
	stock   *fakeStock
	ledger  *fakeLedger
	emitter *fakeEmitter
}

func newTransitionFixture(t *testing.T, status enums.OrderStatus, paymentStatus enums.PaymentStatus) *transitionFixture {
	t.Helper()

	repo := &fakeOrderRepo{
		order: &models.Order{
			ID:     uuid.New(),
			Code:   "FSH-2026-000123",
			UserID: uuid.New(),
			Status: status,
			Total:  decimal.NewFromInt(330000),
			Items: []models.OrderItem{{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				SKU:       "SKU-1",
				Quantity:  3,
			}},
			Payment: &models.OrderPayment{
				ID:     uuid.New(),
				Method: enums.PaymentMethodBank,
				Status: paymentStatus,
				Amount: decimal.NewFromInt(330000),
			},
		},
	}
	stock := &fakeStock{}
	ledger := &fakeLedger{}
	emitter := &fakeEmitter{}

	svc, err := NewService(repo, stock, ledger, emitter, fakeTxRunner{}, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return &transitionFixture{svc: svc, repo: repo, stock: stock, ledger: ledger, emitter: emitter}
}

func staffTransition(target enums.OrderStatus) TransitionInput {
	return TransitionInput{
		IDOrCode:  "FSH-2026-000123",
		Target:    target,
		ActorID:   uuid.New(),
		ActorRole: enums.UserRoleStaff,
	}
}

func TestService_TransitionPendingToPaidSettlesPayment(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusPending, enums.PaymentStatusPending)

	order, err := fx.svc.Transition(context.Background(), staffTransition(enums.OrderStatusPaid))
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("status = %s, want paid", order.Status)
	}
	if order.Payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want paid", order.Payment.Status)
	}
	if order.Payment.PaidAt == nil {
		t.Fatal("paid_at not set")
	}
	if len(fx.stock.credits) != 0 {
		t.Fatalf("unexpected restock: %+v", fx.stock.credits)
	}
	if len(fx.emitter.events) != 0 {
		t.Fatalf("unexpected events: %+v", fx.emitter.events)
	}
	if len(fx.repo.timeline) != 1 || fx.repo.timeline[0].ToStatus != enums.OrderStatusPaid {
		t.Fatalf("timeline = %+v", fx.repo.timeline)
	}
}

func TestService_TransitionPaidToCancelledRestocks(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusPaid, enums.PaymentStatusPaid)

	order, err := fx.svc.Transition(context.Background(), staffTransition(enums.OrderStatusCancelled))
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", order.Status)
	}
	if order.CancelledAt == nil {
		t.Fatal("cancelled_at not set")
	}
	if len(fx.stock.credits) != 1 || fx.stock.credits[0] != (stockCredit{sku: "SKU-1", qty: 3}) {
		t.Fatalf("credits = %+v", fx.stock.credits)
	}
	if len(fx.ledger.records) != 1 {
		t.Fatalf("ledger records = %+v", fx.ledger.records)
	}
	record := fx.ledger.records[0]
	if record.Reason != enums.InventoryReasonOrderCancelled || record.RefID != "FSH-2026-000123" || record.Delta != 3 {
		t.Fatalf("unexpected ledger record: %+v", record)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("events = %+v", fx.emitter.events)
	}
}

func TestService_TransitionToRefundedFlipsPaidPayment(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusProcessing, enums.PaymentStatusPaid)

	order, err := fx.svc.Transition(context.Background(), staffTransition(enums.OrderStatusRefunded))
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if order.Payment.Status != enums.PaymentStatusRefunded {
		t.Fatalf("payment status = %s, want refunded", order.Payment.Status)
	}
	if len(fx.ledger.records) != 1 || fx.ledger.records[0].Reason != enums.InventoryReasonOrderRefunded {
		t.Fatalf("ledger records = %+v", fx.ledger.records)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("events = %+v", fx.emitter.events)
	}
}

func TestService_TransitionToCompletedEmitsEvent(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusShipped, enums.PaymentStatusPaid)

	order, err := fx.svc.Transition(context.Background(), staffTransition(enums.OrderStatusCompleted))
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if order.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventOrderCompleted {
		t.Fatalf("events = %+v", fx.emitter.events)
	}
	if len(fx.stock.credits) != 0 {
		t.Fatalf("completed must not restock: %+v", fx.stock.credits)
	}
}

func TestService_TransitionSameStatusIsRecordedNoOp(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusPaid, enums.PaymentStatusPaid)

	order, err := fx.svc.Transition(context.Background(), staffTransition(enums.OrderStatusPaid))
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("status = %s, want paid", order.Status)
	}
	if len(fx.repo.timeline) != 1 {
		t.Fatalf("expected one timeline row, got %d", len(fx.repo.timeline))
	}
	if len(fx.stock.credits) != 0 || len(fx.emitter.events) != 0 || len(fx.repo.paymentUpdates) != 0 {
		t.Fatal("no-op must not touch stock, payments or events")
	}
}

// hookedTxRunner lets a test change shared state between the service's
// pre-transaction read and the transaction body, standing in for a
// competing transition that commits first.
type hookedTxRunner struct {
	before func()
}

func (r hookedTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.before != nil {
		r.before()
	}
	return fn(nil)
}

func TestService_TransitionLosingRaceDoesNotRestock(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusPaid, enums.PaymentStatusPaid)

	racer, err := NewService(fx.repo, fx.stock, fx.ledger, fx.emitter, hookedTxRunner{before: func() {
		now := time.Now()
		fx.repo.order.Status = enums.OrderStatusCancelled
		fx.repo.order.CancelledAt = &now
	}}, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = racer.Transition(context.Background(), staffTransition(enums.OrderStatusCancelled))
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for the losing transition, got %v", err)
	}
	if len(fx.stock.credits) != 0 {
		t.Fatalf("losing transition credited stock: %+v", fx.stock.credits)
	}
	if len(fx.ledger.records) != 0 {
		t.Fatalf("losing transition wrote ledger rows: %+v", fx.ledger.records)
	}
	if len(fx.emitter.events) != 0 {
		t.Fatalf("losing transition emitted events: %+v", fx.emitter.events)
	}
}

func TestService_TransitionFromTerminalRejected(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusCompleted, enums.PaymentStatusPaid)

	_, err := fx.svc.Transition(context.Background(), staffTransition(enums.OrderStatusPaid))
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(fx.repo.timeline) != 0 {
		t.Fatalf("rejected move must not write timeline: %+v", fx.repo.timeline)
	}
}

func TestService_TransitionRequiresStaff(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusPending, enums.PaymentStatusPending)

	input := staffTransition(enums.OrderStatusPaid)
	input.ActorRole = enums.UserRoleCustomer
	_, err := fx.svc.Transition(context.Background(), input)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_GetHidesForeignOrdersFromCustomers(t *testing.T) {
	fx := newTransitionFixture(t, enums.OrderStatusPending, enums.PaymentStatusPending)
	ctx := context.Background()

	_, err := fx.svc.Get(ctx, uuid.New(), enums.UserRoleCustomer, "FSH-2026-000123")
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}

	order, err := fx.svc.Get(ctx, uuid.New(), enums.UserRoleStaff, "FSH-2026-000123")
	if err != nil {
		t.Fatalf("staff Get error: %v", err)
	}
	if order.Code != "FSH-2026-000123" {
		t.Fatalf("unexpected order %+v", order)
	}

	owner, err := fx.svc.Get(ctx, fx.repo.order.UserID, enums.UserRoleCustomer, fx.repo.order.ID.String())
	if err != nil {
		t.Fatalf("owner Get error: %v", err)
	}
	if owner.ID != fx.repo.order.ID {
		t.Fatalf("unexpected order %+v", owner)
	}
}
