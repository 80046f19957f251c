package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventoryRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input inventory.RecordInput) (*models.InventoryLogEntry, error)
}

// Service exposes catalog management and read operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID, includeHidden bool) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string, includeHidden bool) (*models.Product, error)
	ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, string, error)
	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, variantID uuid.UUID, input UpdateVariantInput) error
	AdjustStock(ctx context.Context, input AdjustStockInput) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Slug        string
	Description *string
	Category    string
	Images      []string
	Status      enums.ProductStatus
	Variants    []VariantInput
}

// VariantInput describes one sellable configuration.
type VariantInput struct {
	SKU   string
	Color string
	Size  string
	Price decimal.Decimal
	Stock int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Images      *[]string
	Status      *enums.ProductStatus
}

// UpdateVariantInput holds optional mutation values for a variant. Stock is
// deliberately absent; stock only moves through AdjustStock or checkout.
type UpdateVariantInput struct {
	Color *string
	Size  *string
	Price *decimal.Decimal
}

// AdjustStockInput captures a manual stock correction. Delta is signed.
type AdjustStockInput struct {
	SKU    string
	Delta  int
	Reason enums.InventoryReason
	Note   *string
}

// ListProductsInput carries listing filters from the API layer.
type ListProductsInput struct {
	Status        *enums.ProductStatus
	Category      string
	Search        string
	Pagination    pagination.Params
	IncludeHidden bool
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger inventoryRecorder
}

// NewService constructs a catalog service instance.
func NewService(repo Repository, tx txRunner, ledger inventoryRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory recorder required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product category is required")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product status %q", status))
	}
	for _, v := range input.Variants {
		if err := validateVariantInput(v); err != nil {
			return nil, err
		}
	}

	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Name)
	}

	product := &models.Product{
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		Category:    input.Category,
		Images:      pq.StringArray(input.Images),
		Status:      status,
	}
	if product.Images == nil {
		product.Images = pq.StringArray{}
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			SKU:   v.SKU,
			Color: v.Color,
			Size:  v.Size,
			Price: v.Price,
			Stock: v.Stock,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return err
		}
		for _, variant := range product.Variants {
			if variant.Stock <= 0 {
				continue
			}
			_, err := s.ledger.Record(ctx, tx, inventory.RecordInput{
				ProductID: product.ID,
				SKU:       variant.SKU,
				Delta:     variant.Stock,
				Reason:    enums.InventoryReasonPurchase,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapCatalogErr(err, "creating product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Images != nil {
		updates["images"] = pq.StringArray(*input.Images)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product status %q", *input.Status))
		}
		updates["status"] = *input.Status
	}

	if err := s.repo.UpdateProduct(ctx, productID, updates); err != nil {
		return nil, mapCatalogErr(err, "updating product")
	}
	return s.GetProduct(ctx, productID, true)
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, includeHidden bool) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, mapCatalogErr(err, "loading product")
	}
	if !includeHidden && product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string, includeHidden bool) (*models.Product, error) {
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, mapCatalogErr(err, "loading product")
	}
	if !includeHidden && product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, string, error) {
	query := ListProductsQuery{
		Status:     input.Status,
		Category:   input.Category,
		Search:     input.Search,
		Pagination: input.Pagination,
	}
	if !input.IncludeHidden {
		active := enums.ProductStatusActive
		query.Status = &active
	}
	products, cursor, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, "", mapCatalogErr(err, "listing products")
	}
	return products, cursor, nil
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	if _, err := s.GetProduct(ctx, productID, true); err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ProductID: productID,
		SKU:       input.SKU,
		Color:     input.Color,
		Size:      input.Size,
		Price:     input.Price,
		Stock:     input.Stock,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateVariant(ctx, variant); err != nil {
			return err
		}
		if variant.Stock > 0 {
			_, err := s.ledger.Record(ctx, tx, inventory.RecordInput{
				ProductID: productID,
				SKU:       variant.SKU,
				Delta:     variant.Stock,
				Reason:    enums.InventoryReasonPurchase,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, mapCatalogErr(err, "creating variant")
	}
	return variant, nil
}

func (s *service) UpdateVariant(ctx context.Context, variantID uuid.UUID, input UpdateVariantInput) error {
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	updates := map[string]any{}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if err := s.repo.UpdateVariant(ctx, variantID, updates); err != nil {
		return mapCatalogErr(err, "updating variant")
	}
	return nil
}

// AdjustStock applies a manual correction as one transaction pairing the
// conditional stock move with its ledger entry.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) error {
	if input.SKU == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	switch input.Reason {
	case enums.InventoryReasonPurchase, enums.InventoryReasonReturn, enums.InventoryReasonAdjustment:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reason %q not allowed for manual adjustment", input.Reason))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		variant, err := repo.FindVariantBySKU(ctx, input.SKU)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sku "+input.SKU+" not found")
			}
			return mapCatalogErr(err, "loading variant")
		}

		if input.Delta > 0 {
			if err := repo.CreditStock(ctx, input.SKU, input.Delta); err != nil {
				return err
			}
		} else {
			if _, err := repo.DebitStock(ctx, input.SKU, -input.Delta); err != nil {
				return err
			}
		}

		_, err = s.ledger.Record(ctx, tx, inventory.RecordInput{
			ProductID: variant.ProductID,
			SKU:       input.SKU,
			Delta:     input.Delta,
			Reason:    input.Reason,
			Note:      input.Note,
		})
		return err
	})
}

func validateVariantInput(input VariantInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
	}
	return nil
}

func mapCatalogErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action+" failed")
}

// Slugify lowercases the name and collapses runs of non-alphanumerics into
// single dashes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
