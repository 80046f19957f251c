package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
)

// Product represents a sellable listing. Stock and pricing live on variants.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Description *string             `gorm:"column:description"`
	Category    string              `gorm:"column:category;not null"`
	Images      pq.StringArray      `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
