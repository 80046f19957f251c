package enums

import "fmt"

// InventoryReason tags every stock delta in the inventory ledger with its cause.
type InventoryReason string

const (
	InventoryReasonPurchase       InventoryReason = "purchase"
	InventoryReasonOrder          InventoryReason = "order"
	InventoryReasonReturn         InventoryReason = "return"
	InventoryReasonAdjustment     InventoryReason = "adjustment"
	InventoryReasonOrderCancelled InventoryReason = "order_cancelled"
	InventoryReasonOrderRefunded  InventoryReason = "order_refunded"
)

var validInventoryReasons = []InventoryReason{
	InventoryReasonPurchase,
	InventoryReasonOrder,
	InventoryReasonReturn,
	InventoryReasonAdjustment,
	InventoryReasonOrderCancelled,
	InventoryReasonOrderRefunded,
}

// String implements fmt.Stringer.
func (r InventoryReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known InventoryReason.
func (r InventoryReason) IsValid() bool {
	for _, candidate := range validInventoryReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseInventoryReason converts raw input into an InventoryReason.
func ParseInventoryReason(value string) (InventoryReason, error) {
	for _, candidate := range validInventoryReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory reason %q", value)
}
