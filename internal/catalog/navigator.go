package catalog

import (
	"context"
	"strings"

	"github.com/dukerupert/mercata/internal/domain"
)

// splitPath breaks a slash-separated slug path into segments, trimming
// whitespace and dropping empty segments. Depth is unbounded.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// walkPath resolves a slug path segment by segment and returns the leaf
// category. The first segment must match a root category; each subsequent
// segment must match a child of the current node.
//
// Failure kinds, in the shape callers need to tell apart:
//   - no category matches the segment at that position: ENOTFOUND
//   - the segment matches an INACTIVE category: EINACTIVE, carrying the
//     partial path resolved so far
//   - the segment matches an ACTIVE category the caller cannot see:
//     ENOTFOUND, identical to the absent case, so access failures never
//     leak existence
func walkPath(ctx context.Context, store domain.CategoryStore, access *AccessResolver, segments []string) (*domain.Category, error) {
	const op = "catalog.resolve"

	var current *domain.Category
	resolved := make([]string, 0, len(segments))

	for _, segment := range segments {
		var siblings []domain.Category
		var err error
		if current == nil {
			siblings, err = store.GetChildren(ctx, nil)
		} else {
			siblings, err = store.GetChildren(ctx, &current.ID)
		}
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load categories")
		}

		match := findBySlug(siblings, segment)
		if match == nil {
			return nil, domain.NotFound(op, "category", strings.Join(append(resolved, segment), "/"))
		}

		resolved = append(resolved, segment)

		if !match.IsActive() {
			return nil, domain.Inactive(op, "category", strings.Join(resolved, "/"))
		}

		ok, err := access.IsAccessible(ctx, match)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Indistinguishable from the absent case.
			return nil, domain.NotFound(op, "category", strings.Join(resolved, "/"))
		}

		current = match
	}

	return current, nil
}

func findBySlug(cats []domain.Category, slug string) *domain.Category {
	for i := range cats {
		if cats[i].Slug == slug {
			return &cats[i]
		}
	}
	return nil
}
