package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

// ListProductsQuery carries the filters supported by product listings.
type ListProductsQuery struct {
	Status     *enums.ProductStatus
	Category   string
	Search     string
	Pagination pagination.Params
}

// Repository defines persistence operations for products and variants.
// Stock mutations are conditional single statements so concurrent checkouts
// cannot drive stock below zero.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, productID uuid.UUID, updates map[string]any) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, query ListProductsQuery) ([]models.Product, string, error)
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	UpdateVariant(ctx context.Context, variantID uuid.UUID, updates map[string]any) error
	FindVariantBySKU(ctx context.Context, sku string) (*models.ProductVariant, error)
	DebitStock(ctx context.Context, sku string, qty int) (*models.ProductVariant, error)
	CreditStock(ctx context.Context, sku string, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, query ListProductsQuery) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(query.Pagination.Limit)
	qb := r.db.WithContext(ctx).
		Preload("Variants").
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	if query.Category != "" {
		qb = qb.Where("category = ?", query.Category)
	}
	if query.Search != "" {
		qb = qb.Where("name LIKE ?", "%"+query.Search+"%")
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := qb.Find(&products).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(products) > limit {
		products = products[:limit]
		last := products[len(products)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return products, nextCursor, nil
}

func (r *repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *repository) UpdateVariant(ctx context.Context, variantID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Updates(updates).Error
}

func (r *repository) FindVariantBySKU(ctx context.Context, sku string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// DebitStock atomically decrements stock for the SKU and returns the pre-debit
// variant for price capture. The decrement is conditional on stock >= qty so a
// concurrent debit can never oversell; losing the race surfaces as
// CodeInsufficientStock.
func (r *repository) DebitStock(ctx context.Context, sku string, qty int) (*models.ProductVariant, error) {
	variant, err := r.FindVariantBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku "+sku+" not found")
		}
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("sku = ? AND stock >= ?", sku, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for sku "+sku)
	}
	return variant, nil
}

// CreditStock unconditionally increments stock for the SKU. Restocking is
// additive with no upper bound.
func (r *repository) CreditStock(ctx context.Context, sku string, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("sku = ?", sku).
		Update("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sku "+sku+" not found")
	}
	return nil
}
