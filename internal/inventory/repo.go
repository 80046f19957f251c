package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

// Repository manages persistence for inventory ledger entries. Rows are
// insert-only; there are no update or delete operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.InventoryLogEntry) error
	ListBySKU(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error)
	ListByRef(ctx context.Context, refID string) ([]models.InventoryLogEntry, error)
	SumByRef(ctx context.Context, refID string) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.InventoryLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListBySKU(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var entries []models.InventoryLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return entries, nextCursor, nil
}

func (r *repository) ListByRef(ctx context.Context, refID string) ([]models.InventoryLogEntry, error) {
	var entries []models.InventoryLogEntry
	if err := r.db.WithContext(ctx).
		Where("ref_id = ?", refID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByRef(ctx context.Context, refID string) (int, error) {
	var sum *int
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryLogEntry{}).
		Select("SUM(delta)").
		Where("ref_id = ?", refID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
