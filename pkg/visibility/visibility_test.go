package visibility

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	"github.com/tuanminhdo/fashionshop-backend/pkg/errors"
)

func baseProduct() (*models.Product, *models.ProductVariant) {
	productID := uuid.New()
	product := &models.Product{
		ID:     productID,
		Name:   "Linen Shirt",
		Slug:   "linen-shirt",
		Status: enums.ProductStatusActive,
	}
	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       "LS-WHITE-M",
		Color:     "white",
		Size:      "M",
	}
	return product, variant
}

func TestEnsureVariantSellable(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		product, variant := baseProduct()
		if err := EnsureVariantSellable(VariantVisibilityInput{Product: product, Variant: variant}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("product missing", func(t *testing.T) {
		_, variant := baseProduct()
		err := EnsureVariantSellable(VariantVisibilityInput{Variant: variant})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("draft product hidden", func(t *testing.T) {
		product, variant := baseProduct()
		product.Status = enums.ProductStatusDraft
		err := EnsureVariantSellable(VariantVisibilityInput{Product: product, Variant: variant})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("archived product hidden", func(t *testing.T) {
		product, variant := baseProduct()
		product.Status = enums.ProductStatusArchived
		err := EnsureVariantSellable(VariantVisibilityInput{Product: product, Variant: variant})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("variant missing", func(t *testing.T) {
		product, _ := baseProduct()
		err := EnsureVariantSellable(VariantVisibilityInput{Product: product})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("variant from another product", func(t *testing.T) {
		product, variant := baseProduct()
		variant.ProductID = uuid.New()
		err := EnsureVariantSellable(VariantVisibilityInput{Product: product, Variant: variant})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
