package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
)

// OrderCreatedEvent signals a checkout produced a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Code          string              `json:"code"`
	UserID        uuid.UUID           `json:"user_id"`
	Total         decimal.Decimal     `json:"total"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderCancelledEvent is emitted when an order enters cancelled or refunded.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	Code        string            `json:"code"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      enums.OrderStatus `json:"status"`
	CancelledAt time.Time         `json:"cancelled_at"`
	Reason      string            `json:"reason,omitempty"`
}

// OrderCompletedEvent is emitted when an order reaches completed.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	Code        string    `json:"code"`
	UserID      uuid.UUID `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
}
