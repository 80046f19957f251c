package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart holds a customer's open cart. One active cart per user. Totals are
// recomputed after every item mutation and are advisory only; checkout
// re-prices from the variant store.
type Cart struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	Discount    decimal.Decimal `gorm:"column:discount;type:numeric(14,2);not null;default:0"`
	ShippingFee decimal.Decimal `gorm:"column:shipping_fee;type:numeric(14,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	Items       []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
