package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/mercata/internal/domain"
)

// ShippingRuleStore implements domain.ShippingRuleStore using PostgreSQL.
type ShippingRuleStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that ShippingRuleStore implements domain.ShippingRuleStore.
var _ domain.ShippingRuleStore = (*ShippingRuleStore)(nil)

// NewShippingRuleStore creates a PostgreSQL-backed shipping rule store.
func NewShippingRuleStore(pool *pgxpool.Pool) *ShippingRuleStore {
	return &ShippingRuleStore{pool: pool}
}

// GetActiveRulesWithRanges returns all active rules with their ranges
// eagerly loaded, ranges in ascending display order.
func (s *ShippingRuleStore) GetActiveRulesWithRanges(ctx context.Context) ([]domain.ShippingRule, error) {
	const op = "postgres.shipping.get_active_rules"

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, scope, state, calculation_type, flat_price, free_shipping_above, priority
		   FROM shipping_rules
		  WHERE active
		  ORDER BY priority DESC, name`,
	)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to query shipping rules")
	}
	defer rows.Close()

	var (
		rules []domain.ShippingRule
		index = make(map[pgtype.UUID]int)
		ids   []pgtype.UUID
	)
	for rows.Next() {
		var (
			id        pgtype.UUID
			state     pgtype.Text
			flatPrice pgtype.Numeric
			freeAbove pgtype.Numeric
			r         domain.ShippingRule
		)
		err := rows.Scan(&id, &r.Name, &r.Scope, &state, &r.CalculationType, &flatPrice, &freeAbove, &r.Priority)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan shipping rule")
		}

		r.ID = uuidFromPg(id)
		r.State = textOrEmpty(state)
		r.Active = true
		if r.FlatPrice, err = decimalPtrFromNumeric(flatPrice); err != nil {
			return nil, domain.Internal(err, op, "invalid flat price")
		}
		if r.FreeShippingAbove, err = decimalPtrFromNumeric(freeAbove); err != nil {
			return nil, domain.Internal(err, op, "invalid free shipping threshold")
		}

		index[id] = len(rules)
		ids = append(ids, id)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read shipping rules")
	}
	if len(rules) == 0 {
		return nil, nil
	}

	rangeRows, err := s.pool.Query(ctx,
		`SELECT id, rule_id, min_value, max_value, price, display_order
		   FROM shipping_ranges
		  WHERE rule_id = ANY($1)
		  ORDER BY display_order`,
		ids,
	)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to query shipping ranges")
	}
	defer rangeRows.Close()

	for rangeRows.Next() {
		var (
			id       pgtype.UUID
			ruleID   pgtype.UUID
			minValue pgtype.Numeric
			maxValue pgtype.Numeric
			price    pgtype.Numeric
			rng      domain.ShippingRange
		)
		err := rangeRows.Scan(&id, &ruleID, &minValue, &maxValue, &price, &rng.DisplayOrder)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan shipping range")
		}

		rng.ID = uuidFromPg(id)
		rng.RuleID = uuidFromPg(ruleID)
		if rng.MinValue, err = decimalPtrFromNumeric(minValue); err != nil {
			return nil, domain.Internal(err, op, "invalid range minimum")
		}
		if rng.MaxValue, err = decimalPtrFromNumeric(maxValue); err != nil {
			return nil, domain.Internal(err, op, "invalid range maximum")
		}
		if rng.Price, err = decimalFromNumeric(price); err != nil {
			return nil, domain.Internal(err, op, "invalid range price")
		}

		i, ok := index[ruleID]
		if !ok {
			continue
		}
		rules[i].Ranges = append(rules[i].Ranges, rng)
	}
	if err := rangeRows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read shipping ranges")
	}

	return rules, nil
}
