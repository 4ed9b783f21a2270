package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/mercata/internal/domain"
)

// PricingSlabStore implements domain.PricingSlabStore using PostgreSQL.
type PricingSlabStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that PricingSlabStore implements domain.PricingSlabStore.
var _ domain.PricingSlabStore = (*PricingSlabStore)(nil)

// NewPricingSlabStore creates a PostgreSQL-backed pricing slab store.
func NewPricingSlabStore(pool *pgxpool.Pool) *PricingSlabStore {
	return &PricingSlabStore{pool: pool}
}

// GetSlabsForProduct returns the product's quantity-break slabs ordered by
// (display order, min quantity).
func (s *PricingSlabStore) GetSlabsForProduct(ctx context.Context, productID uuid.UUID) ([]domain.PricingSlab, error) {
	const op = "postgres.pricing.get_slabs"

	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, min_quantity, max_quantity, discount_type, discount_value, display_order
		   FROM pricing_slabs
		  WHERE product_id = $1
		  ORDER BY display_order, min_quantity`,
		pgUUID(productID),
	)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to query pricing slabs")
	}
	defer rows.Close()

	var slabs []domain.PricingSlab
	for rows.Next() {
		var (
			id            pgtype.UUID
			prodID        pgtype.UUID
			maxQuantity   pgtype.Int4
			discountValue pgtype.Numeric
			slab          domain.PricingSlab
		)
		err := rows.Scan(&id, &prodID, &slab.MinQuantity, &maxQuantity, &slab.DiscountType, &discountValue, &slab.DisplayOrder)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan pricing slab")
		}

		slab.ID = uuidFromPg(id)
		slab.ProductID = uuidFromPg(prodID)
		slab.MaxQuantity = int4Ptr(maxQuantity)
		if slab.DiscountValue, err = decimalFromNumeric(discountValue); err != nil {
			return nil, domain.Internal(err, op, "invalid slab discount value")
		}

		slabs = append(slabs, slab)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read pricing slabs")
	}
	return slabs, nil
}
