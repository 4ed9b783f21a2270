package shipping_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mercata/internal/domain"
	"github.com/dukerupert/mercata/internal/shipping"
)

// memRuleStore is an in-memory ShippingRuleStore.
type memRuleStore struct {
	rules []domain.ShippingRule
}

func (s *memRuleStore) GetActiveRulesWithRanges(ctx context.Context) ([]domain.ShippingRule, error) {
	var active []domain.ShippingRule
	for _, r := range s.rules {
		if r.Active {
			active = append(active, r)
		}
	}
	return active, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func rng(min, max *decimal.Decimal, price string, order int32) domain.ShippingRange {
	return domain.ShippingRange{
		ID:           uuid.New(),
		MinValue:     min,
		MaxValue:     max,
		Price:        dec(price),
		DisplayOrder: order,
	}
}

func newEngine(rules ...domain.ShippingRule) *shipping.Engine {
	return shipping.NewEngine(&memRuleStore{rules: rules}, nil, nil)
}

func calculate(t *testing.T, e *shipping.Engine, cartValue, state string) decimal.Decimal {
	t.Helper()
	charge, err := e.Calculate(context.Background(), dec(cartValue), state)
	require.NoError(t, err)
	return charge
}

func TestCalculate_EmptyCartShortCircuits(t *testing.T) {
	// Even a matching rule must not be consulted for an empty cart.
	engine := newEngine(domain.ShippingRule{
		ID:              uuid.New(),
		Name:            "Nationwide flat",
		Scope:           domain.ShippingScopeAllIndia,
		CalculationType: domain.ShippingCalcFlat,
		FlatPrice:       decPtr("99"),
		Active:          true,
	})

	assert.True(t, calculate(t, engine, "0", "Delhi").IsZero())
	assert.True(t, calculate(t, engine, "-50", "Delhi").IsZero())
}

func TestCalculate_NoRulesFailsOpen(t *testing.T) {
	engine := newEngine()
	assert.True(t, calculate(t, engine, "1500", "Delhi").IsZero())
}

func TestCalculate_StateRangeBeatsNationalFlat(t *testing.T) {
	// A state-specific range rule wins over a nationwide flat rule even when
	// the flat rule is also active.
	engine := newEngine(
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Delhi ranges",
			Scope:           domain.ShippingScopeStateWise,
			State:           "Delhi",
			CalculationType: domain.ShippingCalcRangeBased,
			Active:          true,
			Priority:        10,
			Ranges: []domain.ShippingRange{
				rng(decPtr("0"), decPtr("1000"), "99", 1),
				rng(decPtr("1000"), nil, "0", 2),
			},
		},
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Nationwide flat",
			Scope:           domain.ShippingScopeAllIndia,
			CalculationType: domain.ShippingCalcFlat,
			FlatPrice:       decPtr("150"),
			Active:          true,
			Priority:        5,
		},
	)

	// cartValue=1500 falls in the open-ended band: free shipping.
	assert.True(t, calculate(t, engine, "1500", "Delhi").IsZero())

	// Below the band boundary the first band's price applies.
	assert.True(t, calculate(t, engine, "500", "Delhi").Equal(dec("99")))

	// Other states fall through to the nationwide flat rule.
	assert.True(t, calculate(t, engine, "1500", "Goa").Equal(dec("150")))
}

func TestCalculate_StateMatchIsCaseInsensitive(t *testing.T) {
	engine := newEngine(domain.ShippingRule{
		ID:              uuid.New(),
		Name:            "Delhi flat",
		Scope:           domain.ShippingScopeStateWise,
		State:           "Delhi",
		CalculationType: domain.ShippingCalcFlat,
		FlatPrice:       decPtr("49"),
		Active:          true,
	})

	assert.True(t, calculate(t, engine, "800", "DELHI").Equal(dec("49")))
	assert.True(t, calculate(t, engine, "800", " delhi ").Equal(dec("49")))
}

func TestCalculate_HighestPriorityWinsAmongTies(t *testing.T) {
	engine := newEngine(
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Old Delhi flat",
			Scope:           domain.ShippingScopeStateWise,
			State:           "Delhi",
			CalculationType: domain.ShippingCalcFlat,
			FlatPrice:       decPtr("120"),
			Active:          true,
			Priority:        1,
		},
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "New Delhi flat",
			Scope:           domain.ShippingScopeStateWise,
			State:           "Delhi",
			CalculationType: domain.ShippingCalcFlat,
			FlatPrice:       decPtr("80"),
			Active:          true,
			Priority:        7,
		},
	)

	assert.True(t, calculate(t, engine, "500", "Delhi").Equal(dec("80")))
}

func TestCalculate_RangeBoundaries(t *testing.T) {
	// min is inclusive, max is exclusive; nil min is zero, nil max unbounded.
	engine := newEngine(domain.ShippingRule{
		ID:              uuid.New(),
		Name:            "Banded",
		Scope:           domain.ShippingScopeAllIndia,
		CalculationType: domain.ShippingCalcRangeBased,
		Active:          true,
		Ranges: []domain.ShippingRange{
			rng(nil, decPtr("500"), "99", 1),
			rng(decPtr("500"), decPtr("1000"), "49", 2),
			rng(decPtr("1000"), nil, "0", 3),
		},
	})

	assert.True(t, calculate(t, engine, "0.01", "").Equal(dec("99")))
	assert.True(t, calculate(t, engine, "499.99", "").Equal(dec("99")))
	assert.True(t, calculate(t, engine, "500", "").Equal(dec("49")), "min boundary is inclusive")
	assert.True(t, calculate(t, engine, "999.99", "").Equal(dec("49")))
	assert.True(t, calculate(t, engine, "1000", "").IsZero(), "max boundary is exclusive")
}

func TestCalculate_OverlappingRangesFirstMatchWins(t *testing.T) {
	// Overlap is legal configuration; display order decides.
	engine := newEngine(domain.ShippingRule{
		ID:              uuid.New(),
		Name:            "Overlapping",
		Scope:           domain.ShippingScopeAllIndia,
		CalculationType: domain.ShippingCalcRangeBased,
		Active:          true,
		Ranges: []domain.ShippingRange{
			rng(decPtr("0"), decPtr("2000"), "75", 2),
			rng(decPtr("0"), decPtr("1000"), "99", 1),
		},
	})

	// 500 is inside both bands; the lower display order wins.
	assert.True(t, calculate(t, engine, "500", "").Equal(dec("99")))
}

func TestCalculate_RangeRuleFreeShippingThreshold(t *testing.T) {
	engine := newEngine(domain.ShippingRule{
		ID:                uuid.New(),
		Name:              "Banded with free threshold",
		Scope:             domain.ShippingScopeAllIndia,
		CalculationType:   domain.ShippingCalcRangeBased,
		FreeShippingAbove: decPtr("2000"),
		Active:            true,
		Ranges: []domain.ShippingRange{
			rng(decPtr("0"), nil, "99", 1),
		},
	})

	// Threshold is checked before any band.
	assert.True(t, calculate(t, engine, "2000", "").IsZero())
	assert.True(t, calculate(t, engine, "1999.99", "").Equal(dec("99")))
}

func TestCalculate_UncoveredRangeFallsThroughCascade(t *testing.T) {
	// A range rule whose bands don't cover the cart value is not definitive;
	// the cascade continues to the flat rule.
	engine := newEngine(
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Small orders only",
			Scope:           domain.ShippingScopeStateWise,
			State:           "Delhi",
			CalculationType: domain.ShippingCalcRangeBased,
			Active:          true,
			Ranges: []domain.ShippingRange{
				rng(decPtr("0"), decPtr("100"), "20", 1),
			},
		},
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Delhi flat",
			Scope:           domain.ShippingScopeStateWise,
			State:           "Delhi",
			CalculationType: domain.ShippingCalcFlat,
			FlatPrice:       decPtr("60"),
			Active:          true,
		},
	)

	assert.True(t, calculate(t, engine, "5000", "Delhi").Equal(dec("60")))
}

func TestCalculate_FlatRuleDefaults(t *testing.T) {
	t.Run("unset flat price charges zero", func(t *testing.T) {
		engine := newEngine(domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Zero flat",
			Scope:           domain.ShippingScopeAllIndia,
			CalculationType: domain.ShippingCalcFlat,
			Active:          true,
		})
		assert.True(t, calculate(t, engine, "300", "").IsZero())
	})

	t.Run("free shipping threshold", func(t *testing.T) {
		engine := newEngine(domain.ShippingRule{
			ID:                uuid.New(),
			Name:              "Flat with free threshold",
			Scope:             domain.ShippingScopeAllIndia,
			CalculationType:   domain.ShippingCalcFlat,
			FlatPrice:         decPtr("70"),
			FreeShippingAbove: decPtr("1000"),
			Active:            true,
		})
		assert.True(t, calculate(t, engine, "1000", "").IsZero())
		assert.True(t, calculate(t, engine, "999", "").Equal(dec("70")))
	})
}

func TestCalculate_RangeRuleWithoutRangesIsSkipped(t *testing.T) {
	// A range-based rule with no ranges never participates; the national
	// flat rule resolves instead.
	engine := newEngine(
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Misconfigured bands",
			Scope:           domain.ShippingScopeStateWise,
			State:           "Delhi",
			CalculationType: domain.ShippingCalcRangeBased,
			Active:          true,
			Priority:        10,
		},
		domain.ShippingRule{
			ID:              uuid.New(),
			Name:            "Nationwide flat",
			Scope:           domain.ShippingScopeAllIndia,
			CalculationType: domain.ShippingCalcFlat,
			FlatPrice:       decPtr("40"),
			Active:          true,
		},
	)

	assert.True(t, calculate(t, engine, "500", "Delhi").Equal(dec("40")))
}

func TestCalculate_RejectsMalformedRule(t *testing.T) {
	engine := newEngine(domain.ShippingRule{
		ID:              uuid.New(),
		Name:            "Negative flat",
		Scope:           domain.ShippingScopeAllIndia,
		CalculationType: domain.ShippingCalcFlat,
		FlatPrice:       decPtr("-5"),
		Active:          true,
	})

	_, err := engine.Calculate(context.Background(), dec("100"), "")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
