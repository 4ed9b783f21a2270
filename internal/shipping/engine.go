// Package shipping evaluates the ordered cascade of shipping rules that
// decides the charge for a cart value and a destination state.
package shipping

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/mercata/internal/domain"
	"github.com/dukerupert/mercata/internal/telemetry"
)

// Engine computes shipping charges from the active rule set.
type Engine struct {
	store   domain.ShippingRuleStore
	logger  *slog.Logger
	metrics *telemetry.EngineMetrics
}

// NewEngine creates a shipping engine. metrics may be nil.
func NewEngine(store domain.ShippingRuleStore, logger *slog.Logger, metrics *telemetry.EngineMetrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Calculate resolves the shipping charge for a cart value and destination
// state. The cascade runs in fixed priority order, stopping at the first
// rule that produces a definitive charge:
//
//  1. state-specific range-based rule (highest priority among ties)
//  2. state-specific flat rule
//  3. nationwide range-based rule
//  4. nationwide flat rule
//  5. nothing matched: shipping is zero (fail open)
//
// State matching is case-insensitive. A non-positive cart value
// short-circuits to zero before any rule lookup.
func (e *Engine) Calculate(ctx context.Context, cartValue decimal.Decimal, state string) (decimal.Decimal, error) {
	const op = "shipping.calculate"

	if cartValue.LessThanOrEqual(decimal.Zero) {
		e.metrics.RecordShippingCalculation("empty_cart", 0)
		return decimal.Zero, nil
	}

	rules, err := e.store.GetActiveRulesWithRanges(ctx)
	if err != nil {
		return decimal.Zero, domain.Internal(err, op, "failed to load shipping rules")
	}
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return decimal.Zero, err
		}
	}

	cartFloat, _ := cartValue.Float64()

	if rule := pickRule(rules, domain.ShippingScopeStateWise, domain.ShippingCalcRangeBased, state); rule != nil {
		if charge, matched := evaluateRanges(rule, cartValue); matched {
			e.record("state_range", cartFloat, rule, charge)
			return charge, nil
		}
	}

	if rule := pickRule(rules, domain.ShippingScopeStateWise, domain.ShippingCalcFlat, state); rule != nil {
		charge := evaluateFlat(rule, cartValue)
		e.record("state_flat", cartFloat, rule, charge)
		return charge, nil
	}

	if rule := pickRule(rules, domain.ShippingScopeAllIndia, domain.ShippingCalcRangeBased, ""); rule != nil {
		if charge, matched := evaluateRanges(rule, cartValue); matched {
			e.record("national_range", cartFloat, rule, charge)
			return charge, nil
		}
	}

	if rule := pickRule(rules, domain.ShippingScopeAllIndia, domain.ShippingCalcFlat, ""); rule != nil {
		charge := evaluateFlat(rule, cartValue)
		e.record("national_flat", cartFloat, rule, charge)
		return charge, nil
	}

	e.metrics.RecordShippingCalculation("none", cartFloat)
	return decimal.Zero, nil
}

func (e *Engine) record(tier string, cartValue float64, rule *domain.ShippingRule, charge decimal.Decimal) {
	e.metrics.RecordShippingCalculation(tier, cartValue)
	e.logger.Debug("shipping rule matched",
		"tier", tier,
		"rule", rule.Name,
		"priority", rule.Priority,
		"charge", charge.String(),
	)
}

// pickRule selects the active rule for one cascade step: matching scope and
// calculation type, covering the state for state-wise steps, carrying at
// least one range for range-based steps, and holding the highest priority.
// Ties keep the first rule in store order, which is deterministic.
func pickRule(rules []domain.ShippingRule, scope domain.ShippingScope, calc domain.ShippingCalcType, state string) *domain.ShippingRule {
	var best *domain.ShippingRule
	for i := range rules {
		r := &rules[i]
		if !r.Active || r.Scope != scope || r.CalculationType != calc {
			continue
		}
		if scope == domain.ShippingScopeStateWise && !r.MatchesState(state) {
			continue
		}
		if calc == domain.ShippingCalcRangeBased && len(r.Ranges) == 0 {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	return best
}

// evaluateRanges resolves a range-based rule. The rule's own free-shipping
// threshold is checked first; otherwise ranges are scanned in ascending
// display order and the first containing band wins (ranges may overlap, so
// scan order is the resolution policy). A false return means no band covered
// the cart value and the cascade continues.
func evaluateRanges(rule *domain.ShippingRule, cartValue decimal.Decimal) (decimal.Decimal, bool) {
	if rule.FreeShippingAbove != nil && cartValue.GreaterThanOrEqual(*rule.FreeShippingAbove) {
		return decimal.Zero, true
	}

	ranges := make([]domain.ShippingRange, len(rule.Ranges))
	copy(ranges, rule.Ranges)
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].DisplayOrder < ranges[j].DisplayOrder
	})

	for i := range ranges {
		if ranges[i].Contains(cartValue) {
			return ranges[i].Price, true
		}
	}
	return decimal.Zero, false
}

// evaluateFlat resolves a flat rule: zero when the free-shipping threshold is
// met, otherwise the flat price (zero when unset).
func evaluateFlat(rule *domain.ShippingRule, cartValue decimal.Decimal) decimal.Decimal {
	if rule.FreeShippingAbove != nil && cartValue.GreaterThanOrEqual(*rule.FreeShippingAbove) {
		return decimal.Zero
	}
	if rule.FlatPrice != nil {
		return *rule.FlatPrice
	}
	return decimal.Zero
}
