package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
)

// MaxQuantityPerLine caps how many units of a single variant one order can hold.
const MaxQuantityPerLine = 99

// QuantityValidationInput describes the data required to verify a line item quantity.
type QuantityValidationInput struct {
	VariantID   uuid.UUID
	SKU         string
	ProductName string
	Quantity    int
}

// QuantityViolationDetail exposes the data returned to callers when validation fails.
type QuantityViolationDetail struct {
	VariantID    uuid.UUID `json:"variant_id"`
	SKU          string    `json:"sku,omitempty"`
	ProductName  string    `json:"product_name,omitempty"`
	RequestedQty int       `json:"requested_qty"`
	MaxQty       int       `json:"max_qty"`
}

// ValidateQuantities ensures every provided line item carries a sane quantity.
func ValidateQuantities(items []QuantityValidationInput) error {
	var violations []QuantityViolationDetail
	for _, item := range items {
		if item.Quantity >= 1 && item.Quantity <= MaxQuantityPerLine {
			continue
		}
		violations = append(violations, QuantityViolationDetail{
			VariantID:    item.VariantID,
			SKU:          item.SKU,
			ProductName:  item.ProductName,
			RequestedQty: item.Quantity,
			MaxQty:       MaxQuantityPerLine,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	message := fmt.Sprintf("%d line item(s) have an invalid quantity", len(violations))
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(violations)
}
