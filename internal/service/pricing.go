package service

import (
	"github.com/shopspring/decimal"

	"ferrepos/internal/model"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// SplitLine decomposes one sale line into its tax-exclusive base, IGV amount
// and line total. Rounding is half-up to 2 decimals applied per line, before
// summation — aggregate totals may differ from a whole-sale calculation by a
// cent, which matches the documents this system must reproduce.
func SplitLine(quantity int, unitPrice, taxRate decimal.Decimal, priceIncludesTax bool) (base, tax, total decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	if taxRate.IsZero() {
		return gross, decimal.Zero, gross
	}

	factor := one.Add(taxRate.Div(hundred))
	if priceIncludesTax {
		total = gross
		base = total.Div(factor).Round(2)
		tax = total.Sub(base).Round(2)
		return base, tax, total
	}

	base = gross
	tax = base.Mul(taxRate).Div(hundred).Round(2)
	total = base.Add(tax)
	return base, tax, total
}

// SumLines aggregates already-split details into (subtotal, tax, total),
// subtracting the document-level discount from the total.
func SumLines(details []model.SaleDetail, discount decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal, tax, total = decimal.Zero, decimal.Zero, decimal.Zero
	for _, d := range details {
		subtotal = subtotal.Add(d.Base)
		tax = tax.Add(d.TaxAmount)
		total = total.Add(d.Subtotal)
	}
	return subtotal, tax, total.Sub(discount)
}
