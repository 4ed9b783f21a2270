package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/mercata/internal/domain"
)

// CouponStore implements domain.CouponStore using PostgreSQL.
type CouponStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that CouponStore implements domain.CouponStore.
var _ domain.CouponStore = (*CouponStore)(nil)

// NewCouponStore creates a PostgreSQL-backed coupon store.
func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

// GetByCode retrieves a coupon by code, case-insensitively.
func (s *CouponStore) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, code, type, value, min_order, max_discount, usage_limit, used_count,
		        valid_from, valid_until, active
		   FROM coupons
		  WHERE upper(code) = upper($1)`,
		code,
	)

	var (
		id          pgtype.UUID
		value       pgtype.Numeric
		minOrder    pgtype.Numeric
		maxDiscount pgtype.Numeric
		usageLimit  pgtype.Int4
		validFrom   pgtype.Timestamptz
		validUntil  pgtype.Timestamptz
		c           domain.Coupon
	)

	err := row.Scan(&id, &c.Code, &c.Type, &value, &minOrder, &maxDiscount,
		&usageLimit, &c.UsedCount, &validFrom, &validUntil, &c.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, domain.Internal(err, "postgres.coupon.get_by_code", "failed to load coupon")
	}

	c.ID = uuidFromPg(id)
	if c.Value, err = decimalFromNumeric(value); err != nil {
		return nil, domain.Internal(err, "postgres.coupon.get_by_code", "invalid coupon value")
	}
	if c.MinOrder, err = decimalPtrFromNumeric(minOrder); err != nil {
		return nil, domain.Internal(err, "postgres.coupon.get_by_code", "invalid coupon minimum order")
	}
	if c.MaxDiscount, err = decimalPtrFromNumeric(maxDiscount); err != nil {
		return nil, domain.Internal(err, "postgres.coupon.get_by_code", "invalid coupon discount cap")
	}
	c.UsageLimit = int4Ptr(usageLimit)
	c.ValidFrom = timePtr(validFrom)
	c.ValidUntil = timePtr(validUntil)
	return &c, nil
}

// IncrementUsage atomically increments the coupon's used count.
// The limit check and the increment are one conditional UPDATE, so the
// usage limit holds under concurrent checkouts without a transaction.
func (s *CouponStore) IncrementUsage(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE coupons
		    SET used_count = used_count + 1
		  WHERE upper(code) = upper($1)
		    AND (usage_limit IS NULL OR used_count < usage_limit)`,
		code,
	)
	if err != nil {
		return domain.Internal(err, "postgres.coupon.increment_usage", "failed to record coupon use")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either the code is unknown or the limit is reached.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupons WHERE upper(code) = upper($1))`,
		code,
	).Scan(&exists)
	if err != nil {
		return domain.Internal(err, "postgres.coupon.increment_usage", "failed to check coupon")
	}
	if !exists {
		return domain.ErrCouponNotFound
	}
	return domain.ErrCouponLimitReached
}
