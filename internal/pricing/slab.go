// Package pricing resolves quantity-break discount slabs and applies them to
// unit prices.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/mercata/internal/domain"
	"github.com/dukerupert/mercata/internal/telemetry"
)

var oneHundred = decimal.NewFromInt(100)

// FindSlab selects the slab matching a requested quantity.
//
// Slabs are evaluated in ascending (display order, min quantity) order and
// the first slab containing the quantity wins; display order is the
// tie-break when ranges are ambiguous. No matching slab returns nil with no
// error: the base price simply applies. A quantity below one is a caller
// bug and fails fast.
func FindSlab(slabs []domain.PricingSlab, quantity int32) (*domain.PricingSlab, error) {
	if quantity < 1 {
		telemetry.Engine.RecordSlabResolution("invalid")
		return nil, domain.Invalid("pricing.find_slab", "quantity must be positive")
	}

	ordered := make([]domain.PricingSlab, len(slabs))
	copy(ordered, slabs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].MinQuantity < ordered[j].MinQuantity
	})

	for i := range ordered {
		if err := ordered[i].Validate(); err != nil {
			return nil, err
		}
		if ordered[i].Matches(quantity) {
			telemetry.Engine.RecordSlabResolution("matched")
			return &ordered[i], nil
		}
	}

	telemetry.Engine.RecordSlabResolution("no_match")
	return nil, nil
}

// UnitPrice applies a slab to a base unit price. A nil slab leaves the base
// price untouched.
//
// FIXED_AMOUNT subtracts a flat amount per unit; PERCENTAGE reduces the unit
// price by that percentage, rounded half-up to two decimal places. A
// discount that would push the unit price below zero is malformed
// configuration and fails fast.
func UnitPrice(basePrice decimal.Decimal, slab *domain.PricingSlab) (decimal.Decimal, error) {
	const op = "pricing.unit_price"

	if basePrice.IsNegative() {
		return decimal.Zero, domain.Invalid(op, "base price must not be negative")
	}
	if slab == nil {
		return basePrice, nil
	}

	var price decimal.Decimal
	switch slab.DiscountType {
	case domain.SlabDiscountFixedAmount:
		price = basePrice.Sub(slab.DiscountValue)
	case domain.SlabDiscountPercentage:
		price = basePrice.Mul(oneHundred.Sub(slab.DiscountValue)).Div(oneHundred).Round(2)
	default:
		return decimal.Zero, domain.Errorf(domain.EINVALID, op, "invalid discount type: %s", slab.DiscountType)
	}

	if price.IsNegative() {
		return decimal.Zero, domain.Invalid(op, "slab discount exceeds unit price")
	}
	return price, nil
}
