package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
)

// OrderTimelineEntry is the append-only history of an order's status moves.
// Rows are only ever inserted; the unique (order_id, sequence) pair keeps
// concurrent appends from interleaving.
type OrderTimelineEntry struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_timeline_order_seq"`
	Sequence   int                `gorm:"column:sequence;not null;uniqueIndex:idx_order_timeline_order_seq"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status;type:text"`
	ToStatus   enums.OrderStatus  `gorm:"column:to_status;type:text;not null"`
	ActorID    *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	ActorRole  *enums.UserRole    `gorm:"column:actor_role;type:text"`
	Note       *string            `gorm:"column:note"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
