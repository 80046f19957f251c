package visibility

import (
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
)

// VariantVisibilityInput drives the shared sellability checks for
// customer-facing reads, cart writes and checkout.
type VariantVisibilityInput struct {
	Product *models.Product
	Variant *models.ProductVariant
}

// EnsureVariantSellable enforces canonical rules so draft or archived
// listings never leak through customer queries.
func EnsureVariantSellable(input VariantVisibilityInput) error {
	if input.Product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !input.Product.Status.IsSellable() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}
	if input.Variant == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if input.Variant.ProductID != input.Product.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return nil
}
