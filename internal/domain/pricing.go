package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlabDiscountType determines how a pricing slab's discount is applied.
type SlabDiscountType string

const (
	SlabDiscountFixedAmount SlabDiscountType = "FIXED_AMOUNT"
	SlabDiscountPercentage  SlabDiscountType = "PERCENTAGE"
)

// PricingSlab is a quantity-break discount tier for a product or custom
// configuration.
type PricingSlab struct {
	ID        uuid.UUID
	ProductID uuid.UUID

	// MinQuantity is inclusive.
	MinQuantity int32

	// MaxQuantity is inclusive; nil is unbounded.
	MaxQuantity *int32

	DiscountType  SlabDiscountType `validate:"oneof=FIXED_AMOUNT PERCENTAGE"`
	DiscountValue decimal.Decimal

	// DisplayOrder is the tie-break when slab ranges are ambiguous.
	DisplayOrder int32
}

// Matches reports whether the requested quantity falls inside the slab.
func (s *PricingSlab) Matches(quantity int32) bool {
	if quantity < s.MinQuantity {
		return false
	}
	return s.MaxQuantity == nil || quantity <= *s.MaxQuantity
}

// Validate rejects malformed slab configuration.
func (s *PricingSlab) Validate() error {
	if err := ValidateConfig(s); err != nil {
		return err
	}
	if s.MinQuantity < 1 {
		return Invalid("pricing.validate_slab", "slab minimum quantity must be at least 1")
	}
	if s.MaxQuantity != nil && *s.MaxQuantity < s.MinQuantity {
		return Invalid("pricing.validate_slab", "slab maximum quantity must not precede minimum")
	}
	if s.DiscountValue.IsNegative() {
		return Invalid("pricing.validate_slab", "slab discount value must not be negative")
	}
	return nil
}

// PricingSlabStore provides read access to quantity-break slabs.
type PricingSlabStore interface {
	// GetSlabsForProduct returns the product's slabs ordered by
	// (display order, min quantity).
	GetSlabsForProduct(ctx context.Context, productID uuid.UUID) ([]PricingSlab, error)
}
