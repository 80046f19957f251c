package checkout

import "github.com/shopspring/decimal"

// Totals is the derived money block shared by carts and orders.
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// ShippingFee returns the flat fee unless the subtotal clears the
// free-shipping threshold.
func ShippingFee(subtotal decimal.Decimal, flatFee, freeThreshold int64) decimal.Decimal {
	if subtotal.GreaterThan(decimal.NewFromInt(freeThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromInt(flatFee)
}

// ComputeTotals derives the money block from a subtotal. Discounts are a
// placeholder and always zero. A zero subtotal means an empty item list, which
// carries no shipping fee.
func ComputeTotals(subtotal decimal.Decimal, flatFee, freeThreshold int64) Totals {
	totals := Totals{
		Subtotal: subtotal,
		Discount: decimal.Zero,
	}
	if subtotal.IsZero() {
		totals.ShippingFee = decimal.Zero
	} else {
		totals.ShippingFee = ShippingFee(subtotal, flatFee, freeThreshold)
	}
	totals.Total = totals.Subtotal.Sub(totals.Discount).Add(totals.ShippingFee)
	return totals
}
