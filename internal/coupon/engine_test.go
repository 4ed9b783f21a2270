package coupon_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mercata/internal/coupon"
	"github.com/dukerupert/mercata/internal/domain"
)

// memCouponStore is an in-memory CouponStore. IncrementUsage holds a lock
// across the limit check and the increment, matching the single-conditional-
// update contract a real store implements in SQL.
type memCouponStore struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon
}

func newMemCouponStore(coupons ...*domain.Coupon) *memCouponStore {
	s := &memCouponStore{coupons: make(map[string]*domain.Coupon)}
	for _, c := range coupons {
		s.coupons[domain.NormalizeCouponCode(c.Code)] = c
	}
	return s
}

func (s *memCouponStore) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[domain.NormalizeCouponCode(code)]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	snapshot := *c
	return &snapshot, nil
}

func (s *memCouponStore) IncrementUsage(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[domain.NormalizeCouponCode(code)]
	if !ok {
		return domain.ErrCouponNotFound
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return domain.ErrCouponLimitReached
	}
	c.UsedCount++
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func i32Ptr(v int32) *int32 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func newEngine(store domain.CouponStore) *coupon.Engine {
	return coupon.NewEngine(store, nil, nil)
}

func TestValidate_UnknownCode(t *testing.T) {
	engine := newEngine(newMemCouponStore())

	res, err := engine.Validate(context.Background(), "NOPE", dec("1000"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Invalid coupon code", res.Message)
	assert.True(t, res.Discount.IsZero())
}

func TestValidate_CodeIsCaseInsensitive(t *testing.T) {
	store := newMemCouponStore(&domain.Coupon{
		Code:   "SAVE10",
		Type:   domain.CouponTypePercentage,
		Value:  dec("10"),
		Active: true,
	})
	engine := newEngine(store)

	res, err := engine.Validate(context.Background(), "  save10 ", dec("1000"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidate_CheckOrder(t *testing.T) {
	// A coupon failing several checks at once must report the first failure
	// in the fixed order: active, window, usage limit, minimum order.
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expired := timePtr(now.Add(-time.Hour))

	tests := []struct {
		name    string
		coupon  *domain.Coupon
		total   decimal.Decimal
		message string
	}{
		{
			name: "inactive reported before expiry",
			coupon: &domain.Coupon{
				Code:       "DEAD",
				Type:       domain.CouponTypeFixed,
				Value:      dec("50"),
				Active:     false,
				ValidUntil: expired,
			},
			total:   dec("10"),
			message: "This coupon is no longer active",
		},
		{
			name: "not yet valid",
			coupon: &domain.Coupon{
				Code:      "SOON",
				Type:      domain.CouponTypeFixed,
				Value:     dec("50"),
				Active:    true,
				ValidFrom: timePtr(now.Add(time.Hour)),
			},
			total:   dec("1000"),
			message: "This coupon is not valid yet",
		},
		{
			name: "expired reported before usage limit",
			coupon: &domain.Coupon{
				Code:       "OLD",
				Type:       domain.CouponTypeFixed,
				Value:      dec("50"),
				Active:     true,
				ValidUntil: expired,
				UsageLimit: i32Ptr(1),
				UsedCount:  1,
			},
			total:   dec("1000"),
			message: "This coupon has expired",
		},
		{
			name: "usage limit reported before minimum order",
			coupon: &domain.Coupon{
				Code:       "MAXED",
				Type:       domain.CouponTypeFixed,
				Value:      dec("50"),
				Active:     true,
				UsageLimit: i32Ptr(5),
				UsedCount:  5,
				MinOrder:   decPtr("5000"),
			},
			total:   dec("10"),
			message: "This coupon has reached its usage limit",
		},
		{
			name: "minimum order not met",
			coupon: &domain.Coupon{
				Code:     "BIGCART",
				Type:     domain.CouponTypeFixed,
				Value:    dec("50"),
				Active:   true,
				MinOrder: decPtr("500"),
			},
			total:   dec("499.99"),
			message: "Order total does not meet the coupon minimum of 500.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := coupon.NewEngineAt(newMemCouponStore(tt.coupon), nil, nil, func() time.Time { return now })

			res, err := engine.Validate(context.Background(), tt.coupon.Code, tt.total)
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestValidate_PercentageDiscountCapped(t *testing.T) {
	// SAVE10: 10% of 3000 is 300, capped at 200.
	store := newMemCouponStore(&domain.Coupon{
		Code:        "SAVE10",
		Type:        domain.CouponTypePercentage,
		Value:       dec("10"),
		MaxDiscount: decPtr("200"),
		Active:      true,
	})
	engine := newEngine(store)

	res, err := engine.Validate(context.Background(), "SAVE10", dec("3000"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(dec("200")), "discount = %s, want 200", res.Discount)
	assert.Equal(t, domain.CouponTypePercentage, res.Type)
	assert.True(t, res.Value.Equal(dec("10")))
}

func TestValidate_PercentageRoundsHalfUp(t *testing.T) {
	store := newMemCouponStore(&domain.Coupon{
		Code:   "PCT15",
		Type:   domain.CouponTypePercentage,
		Value:  dec("15"),
		Active: true,
	})
	engine := newEngine(store)

	// 15% of 333.03 = 49.9545 -> 49.95; 15% of 333.10 = 49.965 -> 49.97.
	res, err := engine.Validate(context.Background(), "PCT15", dec("333.03"))
	require.NoError(t, err)
	assert.True(t, res.Discount.Equal(dec("49.95")), "discount = %s, want 49.95", res.Discount)

	res, err = engine.Validate(context.Background(), "PCT15", dec("333.10"))
	require.NoError(t, err)
	assert.True(t, res.Discount.Equal(dec("49.97")), "discount = %s, want 49.97", res.Discount)
}

func TestValidate_FixedDiscountNotClampedToTotal(t *testing.T) {
	store := newMemCouponStore(&domain.Coupon{
		Code:   "FLAT500",
		Type:   domain.CouponTypeFixed,
		Value:  dec("500"),
		Active: true,
	})
	engine := newEngine(store)

	res, err := engine.Validate(context.Background(), "FLAT500", dec("120"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(dec("500")),
		"fixed discount reports the configured value even above the order total")
}

func TestValidate_IsIdempotent(t *testing.T) {
	store := newMemCouponStore(&domain.Coupon{
		Code:       "REPEAT",
		Type:       domain.CouponTypePercentage,
		Value:      dec("5"),
		Active:     true,
		UsageLimit: i32Ptr(3),
	})
	engine := newEngine(store)

	first, err := engine.Validate(context.Background(), "REPEAT", dec("1000"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		res, err := engine.Validate(context.Background(), "REPEAT", dec("1000"))
		require.NoError(t, err)
		assert.Equal(t, first, res, "read-only validation must not change results")
	}
}

func TestUse_ConcurrentRedemptionsHonorLimit(t *testing.T) {
	const limit = 10

	store := newMemCouponStore(&domain.Coupon{
		Code:       "RACE",
		Type:       domain.CouponTypeFixed,
		Value:      dec("10"),
		Active:     true,
		UsageLimit: i32Ptr(limit),
	})
	engine := newEngine(store)

	var wg sync.WaitGroup
	results := make(chan error, limit*2)
	for i := 0; i < limit*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- engine.Use(context.Background(), "RACE")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
		}
	}
	assert.Equal(t, limit, succeeded, "exactly usageLimit redemptions may succeed")

	c, err := store.GetByCode(context.Background(), "RACE")
	require.NoError(t, err)
	assert.Equal(t, int32(limit), c.UsedCount)
}

func TestUse_UnknownCode(t *testing.T) {
	engine := newEngine(newMemCouponStore())

	err := engine.Use(context.Background(), "NOPE")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
