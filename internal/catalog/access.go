package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/dukerupert/mercata/internal/domain"
)

// AccessResolver decides whether a caller may see a category, taking every
// ancestor's allow-list into account. A category is accessible only when its
// own allow-list admits the caller AND its parent is accessible under the
// same rule, so a child is never more open than its parent.
//
// A resolver is scoped to one caller and one request. Ancestor results are
// memoized for the lifetime of the resolver, which keeps a full tree walk
// linear instead of O(depth²) on deep trees.
type AccessResolver struct {
	store      domain.CategoryStore
	email      string
	privileged bool
	memo       map[uuid.UUID]bool
}

// NewAccessResolver creates a resolver for one caller.
// An empty email means only public chains are visible. Privileged callers
// bypass all restrictions.
func NewAccessResolver(store domain.CategoryStore, email string, privileged bool) *AccessResolver {
	return &AccessResolver{
		store:      store,
		email:      email,
		privileged: privileged,
		memo:       make(map[uuid.UUID]bool),
	}
}

// IsAccessible reports whether the caller may see the category.
func (r *AccessResolver) IsAccessible(ctx context.Context, node *domain.Category) (bool, error) {
	if r.privileged {
		return true, nil
	}

	if ok, seen := r.memo[node.ID]; seen {
		return ok, nil
	}

	accessible, err := r.check(ctx, node)
	if err != nil {
		return false, err
	}

	r.memo[node.ID] = accessible
	return accessible, nil
}

func (r *AccessResolver) check(ctx context.Context, node *domain.Category) (bool, error) {
	if node.ParentID != nil {
		parent, err := r.store.GetByID(ctx, *node.ParentID)
		if err != nil {
			return false, domain.Internal(err, "catalog.access", "failed to load parent category")
		}

		parentOK, err := r.IsAccessible(ctx, parent)
		if err != nil {
			return false, err
		}
		if !parentOK {
			return false, nil
		}
	}

	return node.Allows(r.email), nil
}
