package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/metrics"
	"github.com/tuanminhdo/fashionshop-backend/pkg/outbox"
	"github.com/tuanminhdo/fashionshop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockRepository is the slice of the catalog repository the order
// lifecycle needs for restocking.
type stockRepository interface {
	WithTx(tx *gorm.DB) catalog.Repository
	CreditStock(ctx context.Context, sku string, qty int) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes reads over the order aggregate and the staff-side status
// transition. Order creation lives in the checkout orchestrator.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, idOrCode string) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, query ListOrdersQuery) ([]models.Order, string, error)
	ListAll(ctx context.Context, query ListOrdersQuery) ([]models.Order, string, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
}

// TransitionInput describes one requested status move.
type TransitionInput struct {
	IDOrCode  string
	Target    enums.OrderStatus
	ActorID   uuid.UUID
	ActorRole enums.UserRole
	Note      *string
}

type service struct {
	repo    Repository
	stock   stockRepository
	ledger  inventory.Service
	events  eventEmitter
	tx      txRunner
	metrics *metrics.OrderMetrics
}

// NewService wires an order service. The metrics handle may be nil.
func NewService(repo Repository, stock stockRepository, ledger inventory.Service, events eventEmitter, tx txRunner, om *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, stock: stock, ledger: ledger, events: events, tx: tx, metrics: om}, nil
}

// Get loads one order by id or human-readable code. Customers only see
// their own orders; a foreign order reads as not found rather than
// forbidden so codes cannot be probed.
func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, idOrCode string) (*models.Order, error) {
	order, err := s.findOrder(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order "+idOrCode+" not found")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, query ListOrdersQuery) ([]models.Order, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	query.UserID = userID
	return s.repo.List(ctx, query)
}

func (s *service) ListAll(ctx context.Context, query ListOrdersQuery) ([]models.Order, string, error) {
	return s.repo.List(ctx, query)
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.ActorRole.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff may change order status")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Target))
	}

	order, err := s.findOrder(ctx, input.IDOrCode)
	if err != nil {
		return nil, err
	}
	from := order.Status

	if !CanTransition(from, input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", from, input.Target)).
			WithDetails(map[string]any{"allowed": AllowedTargets(from)})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		entry := &models.OrderTimelineEntry{
			OrderID:    order.ID,
			FromStatus: &from,
			ToStatus:   input.Target,
			ActorRole:  &input.ActorRole,
			Note:       input.Note,
		}
		if input.ActorID != uuid.Nil {
			actorID := input.ActorID
			entry.ActorID = &actorID
		}
		if err := repo.AppendTimeline(ctx, entry); err != nil {
			return err
		}

		// Re-applying the current status is a recorded no-op.
		if from == input.Target {
			return nil
		}

		now := time.Now()
		updates := map[string]any{"status": input.Target}
		switch input.Target {
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
		case enums.OrderStatusCompleted:
			updates["completed_at"] = now
		}
		// The conditional update is the serialization point: if a competing
		// transition committed after our read, zero rows match and the whole
		// transaction, timeline entry included, rolls back.
		if err := repo.UpdateOrderStatus(ctx, order.ID, from, updates); err != nil {
			return err
		}

		if triggersRestock(from, input.Target) {
			if err := s.restock(ctx, tx, order, input.Target); err != nil {
				return err
			}
		}

		if err := s.settlePayment(ctx, repo, order, input.Target, now); err != nil {
			return err
		}

		return s.emitTransitionEvent(ctx, tx, order, input.Target, input.Note, now)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying order transition failed")
	}

	s.metrics.IncTransition(from.String(), input.Target.String())
	return s.findOrder(ctx, order.ID.String())
}

// restock returns every debited unit to stock and writes the matching
// positive ledger rows correlated by the order code.
func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus) error {
	reason := enums.InventoryReasonOrderCancelled
	if target == enums.OrderStatusRefunded {
		reason = enums.InventoryReasonOrderRefunded
	}
	stock := s.stock.WithTx(tx)
	for _, item := range order.Items {
		if err := stock.CreditStock(ctx, item.SKU, item.Quantity); err != nil {
			return err
		}
		if _, err := s.ledger.Record(ctx, tx, inventory.RecordInput{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Delta:     item.Quantity,
			Reason:    reason,
			RefID:     order.Code,
		}); err != nil {
			return err
		}
	}
	return nil
}

// settlePayment keeps the payment row consistent with the order status:
// entering paid confirms a pending payment, entering refunded flips a paid
// payment to refunded. Other moves leave the payment alone.
func (s *service) settlePayment(ctx context.Context, repo Repository, order *models.Order, target enums.OrderStatus, now time.Time) error {
	if order.Payment == nil {
		return nil
	}
	switch {
	case target == enums.OrderStatusPaid && order.Payment.Status == enums.PaymentStatusPending:
		return repo.UpdatePayment(ctx, order.ID, map[string]any{
			"status":  enums.PaymentStatusPaid,
			"paid_at": now,
		})
	case target == enums.OrderStatusRefunded && order.Payment.Status == enums.PaymentStatusPaid:
		return repo.UpdatePayment(ctx, order.ID, map[string]any{
			"status": enums.PaymentStatusRefunded,
		})
	}
	return nil
}

func (s *service) emitTransitionEvent(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus, note *string, now time.Time) error {
	switch target {
	case enums.OrderStatusCompleted:
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCompletedEvent{
				OrderID:     order.ID,
				Code:        order.Code,
				UserID:      order.UserID,
				CompletedAt: now,
			},
			Version:    1,
			OccurredAt: now,
		})
	case enums.OrderStatusCancelled, enums.OrderStatusRefunded:
		reason := ""
		if note != nil {
			reason = *note
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				Code:        order.Code,
				UserID:      order.UserID,
				Status:      target,
				CancelledAt: now,
				Reason:      reason,
			},
			Version:    1,
			OccurredAt: now,
		})
	}
	return nil
}

func (s *service) findOrder(ctx context.Context, idOrCode string) (*models.Order, error) {
	if idOrCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id or code is required")
	}

	var (
		order *models.Order
		err   error
	)
	if id, parseErr := uuid.Parse(idOrCode); parseErr == nil {
		order, err = s.repo.FindByID(ctx, id)
	} else {
		order, err = s.repo.FindByCode(ctx, idOrCode)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order "+idOrCode+" not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order failed")
	}
	return order, nil
}
