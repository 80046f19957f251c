package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

// ListOrdersQuery carries the optional filters for order listings.
type ListOrdersQuery struct {
	Status     *enums.OrderStatus
	UserID     uuid.UUID
	Pagination pagination.Params
}

// Repository manages persistence for the order aggregate. The order row,
// its items, its payment and its timeline are written together at creation;
// afterwards only status-driven fields and the append-only timeline change.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	List(ctx context.Context, query ListOrdersQuery) ([]models.Order, string, error)
	AppendTimeline(ctx context.Context, entry *models.OrderTimelineEntry) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, updates map[string]any) error
	UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if order.Payment != nil {
		if order.Payment.ID == uuid.Nil {
			order.Payment.ID = uuid.New()
		}
		order.Payment.OrderID = order.ID
	}
	for i := range order.Timeline {
		if order.Timeline[i].ID == uuid.Nil {
			order.Timeline[i].ID = uuid.New()
		}
		order.Timeline[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).First(&order, "orders.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).First(&order, "orders.code = ?", code).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC")
		}).
		Preload("Payment").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_timeline_entries.sequence ASC")
		})
}

func (r *repository) List(ctx context.Context, query ListOrdersQuery) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(query.Pagination.Limit)
	q := r.preloaded(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if query.UserID != uuid.Nil {
		q = q.Where("user_id = ?", query.UserID)
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, nextCursor, nil
}

// AppendTimeline inserts the next history row for an order. The sequence is
// derived from the current maximum inside the caller's transaction; the
// unique (order_id, sequence) index rejects concurrent appends that raced.
func (r *repository) AppendTimeline(ctx context.Context, entry *models.OrderTimelineEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	var maxSeq *int
	if err := r.db.WithContext(ctx).
		Model(&models.OrderTimelineEntry{}).
		Select("MAX(sequence)").
		Where("order_id = ?", entry.OrderID).
		Scan(&maxSeq).Error; err != nil {
		return err
	}
	entry.Sequence = 1
	if maxSeq != nil {
		entry.Sequence = *maxSeq + 1
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// UpdateOrderStatus applies the status move only while the row still holds
// the status the caller decided on. Zero rows affected means another
// transition committed first; the caller must abort so its side effects
// (restock, ledger rows) roll back with it.
func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s left status %s before the update applied", orderID, from))
	}
	return nil
}

func (r *repository) UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderPayment{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

// FindPendingBefore returns pending orders created before the cutoff,
// oldest first. Used by the expiry sweep.
func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.preloaded(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
