package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponType determines how a coupon's value is applied.
type CouponType string

const (
	CouponTypePercentage CouponType = "PERCENTAGE"
	CouponTypeFixed      CouponType = "FIXED"
)

// ParseCouponType validates a raw coupon type string once at the boundary.
func ParseCouponType(s string) (CouponType, error) {
	switch CouponType(strings.ToUpper(strings.TrimSpace(s))) {
	case CouponTypePercentage:
		return CouponTypePercentage, nil
	case CouponTypeFixed:
		return CouponTypeFixed, nil
	}
	return "", Errorf(EINVALID, "coupon.parse_type", "invalid coupon type: %s", s)
}

// Coupon is a discount code snapshot as read from the store.
// The engine treats it as immutable; only the store mutates UsedCount.
type Coupon struct {
	ID    uuid.UUID
	Code  string     // unique, matched case-insensitively
	Type  CouponType `validate:"oneof=PERCENTAGE FIXED"`
	Value decimal.Decimal

	// MinOrder is the minimum order total required to apply the coupon.
	MinOrder *decimal.Decimal

	// MaxDiscount caps the computed discount. Percentage coupons only.
	MaxDiscount *decimal.Decimal

	// UsageLimit is the global redemption cap. Nil means unlimited.
	UsageLimit *int32
	UsedCount  int32

	ValidFrom  *time.Time
	ValidUntil *time.Time
	Active     bool
}

// NormalizeCouponCode canonicalizes a user-supplied code for lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// UsageExhausted reports whether the global usage limit has been reached.
func (c *Coupon) UsageExhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// CouponStore provides read access to coupons plus the one mutation the
// engine needs.
type CouponStore interface {
	// GetByCode retrieves a coupon by code, case-insensitively.
	GetByCode(ctx context.Context, code string) (*Coupon, error)

	// IncrementUsage atomically increments the coupon's used count.
	// When a usage limit is set, the increment and the limit check must be a
	// single serializable update so concurrent checkouts cannot exceed the
	// limit. Returns ECONFLICT when the limit is already reached.
	IncrementUsage(ctx context.Context, code string) error
}

// Coupon-specific errors.
var (
	ErrCouponNotFound     = &Error{Code: ENOTFOUND, Message: "Coupon not found"}
	ErrCouponLimitReached = &Error{Code: ECONFLICT, Message: "Coupon usage limit reached"}
)
