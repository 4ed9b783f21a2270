// Package coupon validates discount codes and computes discount amounts.
package coupon

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/mercata/internal/domain"
	"github.com/dukerupert/mercata/internal/telemetry"
)

var oneHundred = decimal.NewFromInt(100)

// ValidationResult is the outcome of validating a coupon against an order.
type ValidationResult struct {
	Valid    bool
	Message  string
	Discount decimal.Decimal
	Type     domain.CouponType
	Value    decimal.Decimal
}

// Engine validates and redeems coupons. It is stateless; all state lives in
// the store.
type Engine struct {
	store   domain.CouponStore
	logger  *slog.Logger
	metrics *telemetry.EngineMetrics

	// now is injectable for validity-window tests.
	now func() time.Time
}

// NewEngine creates a coupon engine. metrics may be nil.
func NewEngine(store domain.CouponStore, logger *slog.Logger, metrics *telemetry.EngineMetrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// NewEngineAt is NewEngine with an injected clock, for validity-window tests.
func NewEngineAt(store domain.CouponStore, logger *slog.Logger, metrics *telemetry.EngineMetrics, now func() time.Time) *Engine {
	e := NewEngine(store, logger, metrics)
	if now != nil {
		e.now = now
	}
	return e
}

// Validate checks a coupon code against an order total.
//
// Checks run in a fixed order and short-circuit on the first failure, because
// the failure message is user-facing: unknown code, inactive, validity
// window, usage limit, minimum order. A failed check is not an error; the
// result carries Valid=false and the reason. Errors are reserved for store
// failures.
//
// Validate is read-only and idempotent; redemption is Use.
func (e *Engine) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*ValidationResult, error) {
	const op = "coupon.validate"

	c, err := e.store.GetByCode(ctx, domain.NormalizeCouponCode(code))
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			e.metrics.RecordCouponValidation("unknown_code")
			return &ValidationResult{Valid: false, Message: "Invalid coupon code"}, nil
		}
		e.metrics.RecordCouponValidation("error")
		return nil, domain.Internal(err, op, "failed to load coupon")
	}

	if !c.Active {
		e.metrics.RecordCouponValidation("inactive")
		return invalid(c, "This coupon is no longer active"), nil
	}

	now := e.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		e.metrics.RecordCouponValidation("not_started")
		return invalid(c, "This coupon is not valid yet"), nil
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		e.metrics.RecordCouponValidation("expired")
		return invalid(c, "This coupon has expired"), nil
	}

	if c.UsageExhausted() {
		e.metrics.RecordCouponValidation("limit_reached")
		return invalid(c, "This coupon has reached its usage limit"), nil
	}

	if c.MinOrder != nil && orderTotal.LessThan(*c.MinOrder) {
		e.metrics.RecordCouponValidation("min_order")
		return invalid(c, "Order total does not meet the coupon minimum of "+c.MinOrder.StringFixed(2)), nil
	}

	discount := e.computeDiscount(c, orderTotal)

	e.metrics.RecordCouponValidation("valid")
	e.logger.Debug("coupon validated",
		"code", c.Code,
		"type", string(c.Type),
		"discount", discount.String(),
	)

	return &ValidationResult{
		Valid:    true,
		Message:  "Coupon applied",
		Discount: discount,
		Type:     c.Type,
		Value:    c.Value,
	}, nil
}

// Use records one redemption of the coupon. The store performs the increment
// and the usage-limit check as a single atomic update, so N concurrent
// checkouts against a limit of N can never record an (N+1)th use.
func (e *Engine) Use(ctx context.Context, code string) error {
	err := e.store.IncrementUsage(ctx, domain.NormalizeCouponCode(code))
	switch {
	case err == nil:
		e.metrics.RecordCouponUse("ok")
		return nil
	case domain.IsCode(err, domain.ECONFLICT):
		e.metrics.RecordCouponUse("limit_reached")
		return err
	case domain.IsCode(err, domain.ENOTFOUND):
		e.metrics.RecordCouponUse("not_found")
		return err
	default:
		e.metrics.RecordCouponUse("error")
		return domain.Internal(err, "coupon.use", "failed to record coupon use")
	}
}

// computeDiscount applies the coupon to the order total.
//
// Percentage discounts round half-up to two decimal places and are clamped
// to MaxDiscount when set. Fixed discounts are the configured value as-is:
// the engine deliberately does not clamp a fixed discount to the order total,
// so the reported discount always matches the configured coupon value; the
// checkout caller owns flooring the payable amount at zero.
func (e *Engine) computeDiscount(c *domain.Coupon, orderTotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case domain.CouponTypePercentage:
		discount := orderTotal.Mul(c.Value).Div(oneHundred).Round(2)
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			return *c.MaxDiscount
		}
		return discount
	default:
		return c.Value
	}
}

func invalid(c *domain.Coupon, message string) *ValidationResult {
	return &ValidationResult{
		Valid:   false,
		Message: message,
		Type:    c.Type,
		Value:   c.Value,
	}
}
