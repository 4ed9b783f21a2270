// Package postgres implements the engine's store interfaces over a pgx pool.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/mercata/internal/domain"
)

// CategoryStore implements domain.CategoryStore using PostgreSQL.
type CategoryStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that CategoryStore implements domain.CategoryStore.
var _ domain.CategoryStore = (*CategoryStore)(nil)

// NewCategoryStore creates a PostgreSQL-backed category store.
func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

const categoryColumns = `id, name, slug, parent_id, status, restricted_to, display_order, is_fabric`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		id           pgtype.UUID
		parentID     pgtype.UUID
		restrictedTo pgtype.Text
		c            domain.Category
	)

	err := row.Scan(&id, &c.Name, &c.Slug, &parentID, &c.Status, &restrictedTo, &c.DisplayOrder, &c.IsFabric)
	if err != nil {
		return nil, err
	}

	c.ID = uuidFromPg(id)
	c.ParentID = uuidPtrFromPg(parentID)
	c.RestrictedTo = textOrEmpty(restrictedTo)
	return &c, nil
}

// GetByID retrieves a category by id, any status.
func (s *CategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`,
		pgUUID(id),
	)

	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, domain.Internal(err, "postgres.category.get_by_id", "failed to load category")
	}
	return c, nil
}

// GetChildren returns the direct children of a category ordered by
// (display order, name). A nil parentID returns the root categories.
func (s *CategoryStore) GetChildren(ctx context.Context, parentID *uuid.UUID) ([]domain.Category, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if parentID == nil {
		rows, err = s.pool.Query(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE parent_id IS NULL ORDER BY display_order, name`,
		)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE parent_id = $1 ORDER BY display_order, name`,
			pgUUID(*parentID),
		)
	}
	if err != nil {
		return nil, domain.Internal(err, "postgres.category.get_children", "failed to query categories")
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, domain.Internal(err, "postgres.category.get_children", "failed to scan category")
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.category.get_children", "failed to read categories")
	}
	return out, nil
}

// GetBySlug retrieves a category by slug, any status. Slugs are unique
// across the whole tree.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`,
		slug,
	)

	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, domain.Internal(err, "postgres.category.get_by_slug", "failed to load category")
	}
	return c, nil
}

// GetBySlugAndStatus retrieves a category by slug and lifecycle status.
func (s *CategoryStore) GetBySlugAndStatus(ctx context.Context, slug string, status domain.CategoryStatus) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1 AND status = $2`,
		slug, string(status),
	)

	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, domain.Internal(err, "postgres.category.get_by_slug_status", "failed to load category")
	}
	return c, nil
}
