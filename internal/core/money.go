package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Totals is the output of Compute. Every amount is rounded to 2 decimal places.
type Totals struct {
	SubTotal      decimal.Decimal
	AfterDiscount decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
}

// Compute derives document totals from items and optional percentages:
//
//	subTotal      = Σ quantity × unitPrice
//	afterDiscount = subTotal × (1 − discount/100)
//	tax           = afterDiscount × taxPct/100
//	total         = afterDiscount + additionalCharges + tax
//
// Intermediate values are exact; rounding happens once per output, so the
// result does not depend on item order or on how quantities are split.
func Compute(items []Item, discountPct, additionalCharges, taxPct *decimal.Decimal) (Totals, error) {
	sub := zero
	for i, it := range items {
		if !it.Quantity.IsPositive() {
			return Totals{}, validationError("compute totals", fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than zero")
		}
		if !it.UnitPrice.IsPositive() {
			return Totals{}, validationError("compute totals", fmt.Sprintf("items[%d].unit_price", i), "unit price must be greater than zero")
		}
		sub = sub.Add(it.Quantity.Mul(it.UnitPrice))
	}

	d := valueOrZero(discountPct)
	if d.IsNegative() || d.GreaterThan(hundred) {
		return Totals{}, validationError("compute totals", "discount_pct", "discount must be between 0 and 100")
	}
	a := valueOrZero(additionalCharges)
	if a.IsNegative() {
		return Totals{}, validationError("compute totals", "additional_charges", "additional charges must not be negative")
	}
	t := valueOrZero(taxPct)
	if t.IsNegative() {
		return Totals{}, validationError("compute totals", "tax_pct", "tax must not be negative")
	}

	after := sub.Mul(hundred.Sub(d)).Shift(-2)
	tax := after.Mul(t).Shift(-2)
	total := after.Add(a).Add(tax)

	return Totals{
		SubTotal:      round2(sub),
		AfterDiscount: round2(after),
		TaxAmount:     round2(tax),
		Total:         round2(total),
	}, nil
}

// numberItems assigns line numbers 1..N and the exact per-line subtotal.
func numberItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Line = i + 1
		it.SubTotal = it.Quantity.Mul(it.UnitPrice)
		out[i] = it
	}
	return out
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return zero
	}
	return *d
}
