package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/internal/cart"
	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/internal/orders"
	pkgcheckout "github.com/tuanminhdo/fashionshop-backend/pkg/checkout"
	"github.com/tuanminhdo/fashionshop-backend/pkg/config"
	dbpkg "github.com/tuanminhdo/fashionshop-backend/pkg/db"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/metrics"
	"github.com/tuanminhdo/fashionshop-backend/pkg/outbox"
	"github.com/tuanminhdo/fashionshop-backend/pkg/outbox/payloads"
	"github.com/tuanminhdo/fashionshop-backend/pkg/types"
	"github.com/tuanminhdo/fashionshop-backend/pkg/visibility"
)

// idempotencyKeyTTL bounds how long a client checkout key blocks replays.
const idempotencyKeyTTL = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogRepository interface {
	WithTx(tx *gorm.DB) catalog.Repository
	FindVariantBySKU(ctx context.Context, sku string) (*models.ProductVariant, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type cartRepository interface {
	WithTx(tx *gorm.DB) cart.Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// Service orchestrates order creation and customer self-service
// cancellation. Each call runs as a single transaction; any failure rolls
// back stock, ledger and order writes together.
type Service interface {
	FromCart(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error)
	Direct(ctx context.Context, userID uuid.UUID, items []DirectItem, input CheckoutInput) (*models.Order, error)
	Cancel(ctx context.Context, userID uuid.UUID, idOrCode, reason string) (*models.Order, error)
}

// CheckoutInput carries the buyer-supplied parts of a checkout request.
type CheckoutInput struct {
	PaymentMethod   enums.PaymentMethod
	ShippingAddress types.ShippingAddress
	Note            *string
	IdempotencyKey  string
}

// DirectItem is one requested line for a buy-now checkout.
type DirectItem struct {
	SKU      string
	Quantity int
}

// ServiceParams bundles the collaborators a checkout service needs.
// Idempotency and Metrics are optional.
type ServiceParams struct {
	Orders      orders.Repository
	Catalog     catalogRepository
	Cart        cartRepository
	Ledger      inventory.Service
	Events      eventEmitter
	Tx          txRunner
	Idempotency idempotencyStore
	Metrics     *metrics.OrderMetrics
	Config      config.OrdersConfig
}

type service struct {
	orders  orders.Repository
	catalog catalogRepository
	cart    cartRepository
	ledger  inventory.Service
	events  eventEmitter
	tx      txRunner
	idem    idempotencyStore
	metrics *metrics.OrderMetrics
	cfg     config.OrdersConfig
}

// NewService wires a checkout orchestrator from its collaborators.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		orders:  params.Orders,
		catalog: params.Catalog,
		cart:    params.Cart,
		ledger:  params.Ledger,
		events:  params.Events,
		tx:      params.Tx,
		idem:    params.Idempotency,
		metrics: params.Metrics,
		cfg:     params.Config,
	}, nil
}

func (s *service) FromCart(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	if err := s.validateInput(userID, input); err != nil {
		return nil, err
	}

	loaded, err := s.cart.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart failed")
	}
	if len(loaded.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]DirectItem, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		lines = append(lines, DirectItem{SKU: item.SKU, Quantity: item.Quantity})
	}
	return s.place(ctx, userID, lines, input, loaded.ID)
}

func (s *service) Direct(ctx context.Context, userID uuid.UUID, items []DirectItem, input CheckoutInput) (*models.Order, error) {
	if err := s.validateInput(userID, input); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range items {
		if item.SKU == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
	}
	return s.place(ctx, userID, items, input, uuid.Nil)
}

func (s *service) validateInput(userID uuid.UUID, input CheckoutInput) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	return nil
}

// place runs the shared checkout path for both cart and buy-now flows.
// cartID is uuid.Nil for buy-now; otherwise the cart is emptied inside the
// same transaction.
func (s *service) place(ctx context.Context, userID uuid.UUID, lines []DirectItem, input CheckoutInput, cartID uuid.UUID) (*models.Order, error) {
	start := time.Now()

	idemKey, err := s.claimIdempotencyKey(ctx, userID, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 0; ; attempt++ {
		code := orders.GenerateCode(s.cfg.CodePrefix, time.Now())
		order, err = s.placeWithCode(ctx, userID, lines, input, cartID, code)
		if err == nil {
			break
		}
		if dbpkg.IsUniqueViolation(err, "idx_orders_code") && attempt+1 < s.codeMaxRetries() {
			continue
		}
		s.releaseIdempotencyKey(ctx, idemKey)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		if dbpkg.IsUniqueViolation(err, "idx_orders_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate an order code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout failed")
	}

	s.metrics.IncCreated(input.PaymentMethod.String())
	s.metrics.ObserveCheckout(time.Since(start))
	return order, nil
}

func (s *service) placeWithCode(ctx context.Context, userID uuid.UUID, lines []DirectItem, input CheckoutInput, cartID uuid.UUID, code string) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogTx := s.catalog.WithTx(tx)

		type resolvedLine struct {
			variant *models.ProductVariant
			product *models.Product
			qty     int
		}
		resolved := make([]resolvedLine, 0, len(lines))
		quantities := make([]pkgcheckout.QuantityValidationInput, 0, len(lines))
		for _, line := range lines {
			variant, err := catalogTx.FindVariantBySKU(ctx, line.SKU)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "sku "+line.SKU+" not found")
				}
				return err
			}
			product, err := catalogTx.FindProductByID(ctx, variant.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return err
			}
			if err := visibility.EnsureVariantSellable(visibility.VariantVisibilityInput{Product: product, Variant: variant}); err != nil {
				return err
			}
			resolved = append(resolved, resolvedLine{variant: variant, product: product, qty: line.Quantity})
			quantities = append(quantities, pkgcheckout.QuantityValidationInput{
				VariantID:   variant.ID,
				SKU:         variant.SKU,
				ProductName: product.Name,
				Quantity:    line.Quantity,
			})
		}
		if err := pkgcheckout.ValidateQuantities(quantities); err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(resolved))
		for _, line := range resolved {
			// The returned variant holds the pre-debit row; its price is
			// the one frozen onto the order.
			variant, err := catalogTx.DebitStock(ctx, line.variant.SKU, line.qty)
			if err != nil {
				return err
			}
			if _, err := s.ledger.Record(ctx, tx, inventory.RecordInput{
				ProductID: variant.ProductID,
				SKU:       variant.SKU,
				Delta:     -line.qty,
				Reason:    enums.InventoryReasonOrder,
				RefID:     code,
			}); err != nil {
				return err
			}
			lineTotal := variant.Price.Mul(decimal.NewFromInt(int64(line.qty)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID: variant.ProductID,
				SKU:       variant.SKU,
				Name:      line.product.Name,
				Color:     variant.Color,
				Size:      variant.Size,
				UnitPrice: variant.Price,
				Quantity:  line.qty,
				LineTotal: lineTotal,
				Image:     firstImage(line.product),
			})
		}

		totals := pkgcheckout.ComputeTotals(subtotal, s.cfg.ShippingFee, s.cfg.FreeShippingThreshold)
		now := time.Now()

		payment := &models.OrderPayment{
			Method: input.PaymentMethod,
			Status: enums.PaymentStatusPending,
			Amount: totals.Total,
		}
		if input.PaymentMethod == enums.PaymentMethodCOD {
			payment.Status = enums.PaymentStatusPaid
			payment.PaidAt = &now
		}

		role := enums.UserRoleCustomer
		order = &models.Order{
			Code:            code,
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			Subtotal:        totals.Subtotal,
			Discount:        totals.Discount,
			ShippingFee:     totals.ShippingFee,
			Total:           totals.Total,
			ShippingAddress: input.ShippingAddress,
			Note:            input.Note,
			Items:           items,
			Payment:         payment,
			Timeline: []models.OrderTimelineEntry{{
				Sequence:  1,
				ToStatus:  enums.OrderStatusPending,
				ActorID:   &userID,
				ActorRole: &role,
			}},
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		if cartID != uuid.Nil {
			cartTx := s.cart.WithTx(tx)
			if err := cartTx.DeleteItemsByCartID(ctx, cartID); err != nil {
				return err
			}
			if err := cartTx.UpdateTotals(ctx, cartID, pkgcheckout.Totals{
				Subtotal:    decimal.Zero,
				Discount:    decimal.Zero,
				ShippingFee: decimal.Zero,
				Total:       decimal.Zero,
			}); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: role.String()},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				Code:          order.Code,
				UserID:        userID,
				Total:         order.Total,
				ItemCount:     len(order.Items),
				PaymentMethod: input.PaymentMethod,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel is the customer-facing escape hatch. Only pending and paid orders
// qualify; anything further along needs staff intervention.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, idOrCode, reason string) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	order, err := s.findUserOrder(ctx, userID, idOrCode)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if from != enums.OrderStatusPending && from != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s can no longer be cancelled", from))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		now := time.Now()

		role := enums.UserRoleCustomer
		var note *string
		if reason != "" {
			note = &reason
		}
		if err := repo.AppendTimeline(ctx, &models.OrderTimelineEntry{
			OrderID:    order.ID,
			FromStatus: &from,
			ToStatus:   enums.OrderStatusCancelled,
			ActorID:    &userID,
			ActorRole:  &role,
			Note:       note,
		}); err != nil {
			return err
		}
		// Guarded by the order's pre-read status: a competing cancel or staff
		// transition that already committed leaves zero rows matching, which
		// aborts the transaction before any stock is credited back.
		if err := repo.UpdateOrderStatus(ctx, order.ID, from, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return err
		}

		catalogTx := s.catalog.WithTx(tx)
		for _, item := range order.Items {
			if err := catalogTx.CreditStock(ctx, item.SKU, item.Quantity); err != nil {
				return err
			}
			if _, err := s.ledger.Record(ctx, tx, inventory.RecordInput{
				ProductID: item.ProductID,
				SKU:       item.SKU,
				Delta:     item.Quantity,
				Reason:    enums.InventoryReasonOrderCancelled,
				RefID:     order.Code,
			}); err != nil {
				return err
			}
		}

		if order.Payment != nil && order.Payment.Status == enums.PaymentStatusPaid {
			if err := repo.UpdatePayment(ctx, order.ID, map[string]any{
				"status": enums.PaymentStatusRefunded,
			}); err != nil {
				return err
			}
			refundNote := "payment refund to be handled manually"
			if err := repo.AppendTimeline(ctx, &models.OrderTimelineEntry{
				OrderID:   order.ID,
				ToStatus:  enums.OrderStatusCancelled,
				ActorRole: &role,
				Note:      &refundNote,
			}); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: role.String()},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				Code:        order.Code,
				UserID:      order.UserID,
				Status:      enums.OrderStatusCancelled,
				CancelledAt: now,
				Reason:      reason,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order failed")
	}

	s.metrics.IncTransition(from.String(), enums.OrderStatusCancelled.String())
	return s.findUserOrder(ctx, userID, idOrCode)
}

func (s *service) findUserOrder(ctx context.Context, userID uuid.UUID, idOrCode string) (*models.Order, error) {
	if idOrCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id or code is required")
	}

	var (
		order *models.Order
		err   error
	)
	if id, parseErr := uuid.Parse(idOrCode); parseErr == nil {
		order, err = s.orders.FindByID(ctx, id)
	} else {
		order, err = s.orders.FindByCode(ctx, idOrCode)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order "+idOrCode+" not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order failed")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order "+idOrCode+" not found")
	}
	return order, nil
}

// claimIdempotencyKey reserves a client-supplied key. The empty key, or a
// missing store, disables the guard.
func (s *service) claimIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	if key == "" || s.idem == nil {
		return "", nil
	}
	full := s.idem.IdempotencyKey("checkout:"+userID.String(), key)
	set, err := s.idem.SetNX(ctx, full, "1", idempotencyKeyTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check failed")
	}
	if !set {
		return "", pkgerrors.New(pkgerrors.CodeIdempotency, "checkout already processed for this key")
	}
	return full, nil
}

// releaseIdempotencyKey frees a claimed key after a failed checkout so the
// client may retry with the same key.
func (s *service) releaseIdempotencyKey(ctx context.Context, key string) {
	if key == "" || s.idem == nil {
		return
	}
	_ = s.idem.Del(ctx, key)
}

func (s *service) codeMaxRetries() int {
	if s.cfg.CodeMaxRetries > 0 {
		return s.cfg.CodeMaxRetries
	}
	return 1
}

func firstImage(product *models.Product) *string {
	if len(product.Images) == 0 {
		return nil
	}
	img := product.Images[0]
	return &img
}
