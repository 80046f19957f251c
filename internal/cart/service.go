package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/pkg/checkout"
	"github.com/tuanminhdo/fashionshop-backend/pkg/config"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/visibility"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	FindVariantBySKU(ctx context.Context, sku string) (*models.ProductVariant, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the per-user cart staging operations. Every mutation
// recomputes the derived totals before returning.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, sku string, quantity int) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

// AddItemInput is the payload for staging one SKU.
type AddItemInput struct {
	SKU      string
	Quantity int
}

type service struct {
	repo    Repository
	catalog catalogReader
	tx      txRunner
	orders  config.OrdersConfig
}

// NewService constructs a cart service instance.
func NewService(repo Repository, catalog catalogReader, tx txRunner, orders config.OrdersConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, catalog: catalog, tx: tx, orders: orders}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart failed")
	}

	cart = &models.Cart{UserID: userID}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart failed")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Quantity < 1 || input.Quantity > checkout.MaxQuantityPerLine {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", checkout.MaxQuantityPerLine))
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	variant, err := s.catalog.FindVariantBySKU(ctx, input.SKU)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku "+input.SKU+" not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant failed")
	}
	product, err := s.catalog.FindProductByID(ctx, variant.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product failed")
	}
	if err := visibility.EnsureVariantSellable(visibility.VariantVisibilityInput{Product: product, Variant: variant}); err != nil {
		return nil, err
	}

	existing := findItemBySKU(cart.Items, input.SKU)
	newQty := input.Quantity
	if existing != nil {
		newQty += existing.Quantity
	}
	if variant.Stock < newQty {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for sku "+input.SKU)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if existing != nil {
			if err := repo.UpdateItem(ctx, existing.ID, map[string]any{
				"quantity": newQty,
				"price":    variant.Price,
				"name":     product.Name,
			}); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				SKU:       variant.SKU,
				Name:      product.Name,
				Price:     variant.Price,
				Quantity:  input.Quantity,
				Image:     firstImage(product),
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return s.recomputeTotals(ctx, repo, userID)
	})
	if err != nil {
		return nil, wrapCartErr(err, "adding cart item")
	}
	return s.repo.FindByUserID(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID uuid.UUID, sku string, quantity int) (*models.Cart, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if quantity > checkout.MaxQuantityPerLine {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", checkout.MaxQuantityPerLine))
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing := findItemBySKU(cart.Items, sku)
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku "+sku+" is not in the cart")
	}

	if quantity > 0 {
		variant, err := s.catalog.FindVariantBySKU(ctx, sku)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku "+sku+" not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant failed")
		}
		if variant.Stock < quantity {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for sku "+sku)
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if quantity <= 0 {
			if err := repo.DeleteItem(ctx, existing.ID); err != nil {
				return err
			}
		} else {
			if err := repo.UpdateItem(ctx, existing.ID, map[string]any{"quantity": quantity}); err != nil {
				return err
			}
		}
		return s.recomputeTotals(ctx, repo, userID)
	})
	if err != nil {
		return nil, wrapCartErr(err, "updating cart item")
	}
	return s.repo.FindByUserID(ctx, userID)
}

// Clear empties the items and zeroes the totals. The cart row survives.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItemsByCartID(ctx, cart.ID); err != nil {
			return err
		}
		return repo.UpdateTotals(ctx, cart.ID, checkout.Totals{
			Subtotal:    decimal.Zero,
			Discount:    decimal.Zero,
			ShippingFee: decimal.Zero,
			Total:       decimal.Zero,
		})
	})
	if err != nil {
		return nil, wrapCartErr(err, "clearing cart")
	}
	return s.repo.FindByUserID(ctx, userID)
}

// recomputeTotals derives the money block from the current item rows inside
// the caller's transaction.
func (s *service) recomputeTotals(ctx context.Context, repo Repository, userID uuid.UUID) error {
	cart, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	totals := checkout.ComputeTotals(subtotal, s.orders.ShippingFee, s.orders.FreeShippingThreshold)
	return repo.UpdateTotals(ctx, cart.ID, totals)
}

func findItemBySKU(items []models.CartItem, sku string) *models.CartItem {
	for i := range items {
		if items[i].SKU == sku {
			return &items[i]
		}
	}
	return nil
}

func firstImage(product *models.Product) *string {
	if len(product.Images) == 0 {
		return nil
	}
	img := product.Images[0]
	return &img
}

func wrapCartErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action+" failed")
}
