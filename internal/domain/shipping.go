package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingScope determines which destinations a rule covers.
type ShippingScope string

const (
	ShippingScopeAllIndia  ShippingScope = "ALL_INDIA"
	ShippingScopeStateWise ShippingScope = "STATE_WISE"
)

// ShippingCalcType determines how a rule computes its charge.
type ShippingCalcType string

const (
	ShippingCalcFlat       ShippingCalcType = "FLAT"
	ShippingCalcRangeBased ShippingCalcType = "RANGE_BASED"
)

// ShippingRule is one candidate in the shipping cascade.
type ShippingRule struct {
	ID    uuid.UUID
	Name  string
	Scope ShippingScope `validate:"oneof=ALL_INDIA STATE_WISE"`

	// State is the destination state code, STATE_WISE rules only.
	// Matched case-insensitively.
	State string

	CalculationType ShippingCalcType `validate:"oneof=FLAT RANGE_BASED"`

	// FlatPrice is the charge for FLAT rules. Nil is treated as zero.
	FlatPrice *decimal.Decimal

	// FreeShippingAbove waives the charge for cart values at or above it.
	FreeShippingAbove *decimal.Decimal

	Active   bool
	Priority int32

	// Ranges are scanned in ascending display order; ranges are not required
	// to be non-overlapping, so first match wins.
	Ranges []ShippingRange
}

// MatchesState reports whether a STATE_WISE rule covers the destination.
func (r *ShippingRule) MatchesState(state string) bool {
	return strings.EqualFold(strings.TrimSpace(r.State), strings.TrimSpace(state))
}

// Validate rejects configuration the validator tags cannot express.
// Called by the engine before a rule participates in the cascade.
func (r *ShippingRule) Validate() error {
	if err := ValidateConfig(r); err != nil {
		return err
	}
	if r.Scope == ShippingScopeStateWise && strings.TrimSpace(r.State) == "" {
		return Invalid("shipping.validate_rule", "state-wise rule missing state code")
	}
	if r.FlatPrice != nil && r.FlatPrice.IsNegative() {
		return Invalid("shipping.validate_rule", "flat price must not be negative")
	}
	for _, rng := range r.Ranges {
		if err := rng.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ShippingRange is a cart-value band belonging to one ShippingRule.
type ShippingRange struct {
	ID     uuid.UUID
	RuleID uuid.UUID

	// MinValue is inclusive; nil is treated as zero.
	MinValue *decimal.Decimal

	// MaxValue is exclusive; nil is unbounded.
	MaxValue *decimal.Decimal

	Price        decimal.Decimal
	DisplayOrder int32
}

// Contains reports whether the cart value falls inside the band.
func (r *ShippingRange) Contains(cartValue decimal.Decimal) bool {
	min := decimal.Zero
	if r.MinValue != nil {
		min = *r.MinValue
	}
	if cartValue.LessThan(min) {
		return false
	}
	return r.MaxValue == nil || cartValue.LessThan(*r.MaxValue)
}

// Validate rejects malformed range configuration.
// Overlap between sibling ranges is deliberately not checked; resolution is
// first-match in display order.
func (r *ShippingRange) Validate() error {
	if r.Price.IsNegative() {
		return Invalid("shipping.validate_range", "range price must not be negative")
	}
	if r.MinValue != nil && r.MinValue.IsNegative() {
		return Invalid("shipping.validate_range", "range minimum must not be negative")
	}
	if r.MinValue != nil && r.MaxValue != nil && r.MaxValue.LessThanOrEqual(*r.MinValue) {
		return Invalid("shipping.validate_range", "range maximum must exceed minimum")
	}
	return nil
}

// ShippingRuleStore provides read access to the active rule set.
type ShippingRuleStore interface {
	// GetActiveRulesWithRanges returns all active rules with their ranges
	// eagerly loaded, ranges ordered by display order.
	GetActiveRulesWithRanges(ctx context.Context) ([]ShippingRule, error)
}
