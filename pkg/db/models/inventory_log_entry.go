package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
)

// RefPending marks ledger rows written before an order code is known.
const RefPending = "pending"

// InventoryLogEntry records an immutable stock movement for a variant.
// Positive delta adds stock, negative delta removes it. RefID correlates
// the row to an order code by string, not by foreign key.
type InventoryLogEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	SKU       string                `gorm:"column:sku;not null;index"`
	Delta     int                   `gorm:"column:delta;not null"`
	Reason    enums.InventoryReason `gorm:"column:reason;type:text;not null"`
	RefID     string                `gorm:"column:ref_id;not null;default:'pending';index"`
	Note      *string               `gorm:"column:note"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
