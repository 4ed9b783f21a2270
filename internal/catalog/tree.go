package catalog

import (
	"context"
	"sort"

	"github.com/dukerupert/mercata/internal/domain"
)

// buildSubtree materializes root with all of its visible descendants.
// A descendant that fails the access check is excised together with its
// entire subtree; callers never see a partial peek into a restricted branch.
// Only ACTIVE descendants are attached.
//
// The caller is responsible for checking root's own accessibility first so
// that denial surfaces as not-found rather than as an empty tree.
func buildSubtree(ctx context.Context, store domain.CategoryStore, access *AccessResolver, root *domain.Category) (*domain.CategoryTree, error) {
	tree := &domain.CategoryTree{Category: *root}

	children, err := store.GetChildren(ctx, &root.ID)
	if err != nil {
		return nil, domain.Internal(err, "catalog.build_tree", "failed to load child categories")
	}

	sortCategories(children)

	for i := range children {
		child := &children[i]
		if !child.IsActive() {
			continue
		}

		ok, err := access.IsAccessible(ctx, child)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		subtree, err := buildSubtree(ctx, store, access, child)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, subtree)
	}

	return tree, nil
}

// sortCategories orders siblings by (display order, name) so materialized
// trees are deterministic regardless of store ordering.
func sortCategories(cats []domain.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].DisplayOrder != cats[j].DisplayOrder {
			return cats[i].DisplayOrder < cats[j].DisplayOrder
		}
		return cats[i].Name < cats[j].Name
	})
}
