// Package pricing computes order totals and promo discounts. All arithmetic
// goes through decimal so that repeated ledger updates do not accumulate
// binary floating point residue.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is a fully priced order.
type Breakdown struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	Taxable       float64 `json:"taxable"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"serviceCharge"`
	Total         float64 `json:"total"`
}

// Add returns a+b without float drift.
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// Sub returns a-b without float drift.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

// LineTotal returns price × qty.
func LineTotal(price float64, qty int) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64()
}

// Subtotal sums price × qty over the lines.
func Subtotal(lines []models.OrderLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	return sum.InexactFloat64()
}

// Terms freezes the discount terms of a promo.
func Terms(p models.Promo) models.AppliedPromo {
	terms := models.AppliedPromo{
		ID:    p.ID,
		Code:  p.Code,
		Type:  p.Type,
		Value: p.Value,
	}
	if p.MaxDiscount != nil {
		v := *p.MaxDiscount
		terms.MaxDiscount = &v
	}
	return terms
}

// Discount computes the discount promo terms grant on subtotal. A percentage is
// capped by MaxDiscount when set; every discount is capped at the subtotal and
// never negative. Preview and order creation both use this function.
func Discount(terms models.AppliedPromo, subtotal float64) float64 {
	sub := decimal.NewFromFloat(subtotal)
	if !sub.IsPositive() {
		return 0
	}

	var d decimal.Decimal
	switch terms.Type {
	case models.PromoPercentage:
		d = sub.Mul(decimal.NewFromFloat(terms.Value)).Div(hundred)
		if terms.MaxDiscount != nil {
			d = decimal.Min(d, decimal.NewFromFloat(*terms.MaxDiscount))
		}
	case models.PromoFixed:
		d = decimal.NewFromFloat(terms.Value)
	default:
		return 0
	}

	d = decimal.Min(d, sub)
	if d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}

// Price prices lines with optional promo terms under the given settings. Tax and
// service charge apply to the subtotal after discount.
func Price(lines []models.OrderLine, terms *models.AppliedPromo, settings models.Settings) Breakdown {
	subtotal := Subtotal(lines)
	discount := 0.0
	if terms != nil {
		discount = Discount(*terms, subtotal)
	}

	taxable := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount))
	tax := taxable.Mul(decimal.NewFromFloat(settings.TaxPercent)).Div(hundred)
	service := taxable.Mul(decimal.NewFromFloat(settings.ServiceChargePercent)).Div(hundred)

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		Taxable:       taxable.InexactFloat64(),
		Tax:           tax.InexactFloat64(),
		ServiceCharge: service.InexactFloat64(),
		Total:         taxable.Add(tax).Add(service).InexactFloat64(),
	}
}

// Redeemable checks that a promo may be applied at now.
func Redeemable(p models.Promo, now time.Time) error {
	switch {
	case !p.IsActive:
		return models.Invalid("promo %s is not active", p.Code)
	case p.ExpiresAt != nil && now.After(*p.ExpiresAt):
		return models.Invalid("promo %s has expired", p.Code)
	case p.MaxUses != nil && p.Uses >= *p.MaxUses:
		return models.Invalid("promo %s has reached its usage limit", p.Code)
	}
	return nil
}
