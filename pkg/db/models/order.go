package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	"github.com/tuanminhdo/fashionshop-backend/pkg/types"
)

// Order is the immutable record produced at checkout. Item rows and money
// totals are frozen snapshots; only status-driven fields change afterwards.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string                `gorm:"column:code;not null;uniqueIndex:idx_orders_code"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Discount        decimal.Decimal       `gorm:"column:discount;type:numeric(14,2);not null;default:0"`
	ShippingFee     decimal.Decimal       `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(14,2);not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	Note            *string               `gorm:"column:note"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *OrderPayment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Timeline        []OrderTimelineEntry  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt     *time.Time            `gorm:"column:cancelled_at"`
	CompletedAt     *time.Time            `gorm:"column:completed_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
