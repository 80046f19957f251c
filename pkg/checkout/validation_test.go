package checkout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tuanminhdo/fashionshop-backend/pkg/errors"
)

func TestValidateQuantities(t *testing.T) {
	ok := []QuantityValidationInput{
		{VariantID: uuid.New(), SKU: "LS-WHITE-M", Quantity: 1},
		{VariantID: uuid.New(), SKU: "LS-BLACK-L", Quantity: MaxQuantityPerLine},
	}
	if err := ValidateQuantities(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := append(ok, QuantityValidationInput{
		VariantID:   uuid.New(),
		SKU:         "JK-NAVY-S",
		ProductName: "Denim Jacket",
		Quantity:    0,
	}, QuantityValidationInput{
		VariantID: uuid.New(),
		SKU:       "JK-NAVY-M",
		Quantity:  MaxQuantityPerLine + 1,
	})

	err := ValidateQuantities(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	details, ok2 := typed.Details().([]QuantityViolationDetail)
	if !ok2 {
		t.Fatalf("unexpected details type %T", typed.Details())
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(details))
	}
}
