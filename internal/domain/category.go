package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// CATEGORY DOMAIN TYPES
// =============================================================================

// CategoryStatus represents the lifecycle state of a category.
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "ACTIVE"
	CategoryStatusInactive CategoryStatus = "INACTIVE"
)

// ParseCategoryStatus validates a raw status string once at the boundary.
func ParseCategoryStatus(s string) (CategoryStatus, error) {
	switch CategoryStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryStatusActive:
		return CategoryStatusActive, nil
	case CategoryStatusInactive:
		return CategoryStatusInactive, nil
	}
	return "", Errorf(EINVALID, "category.parse_status", "invalid category status: %s", s)
}

// Category is a node in the catalog hierarchy.
// Parent/child relations are carried as id references, never live pointers;
// the ancestor chain is an iterative walk over ids.
type Category struct {
	ID       uuid.UUID
	Name     string
	Slug     string // unique across the whole tree, not just siblings
	ParentID *uuid.UUID
	Status   CategoryStatus

	// RestrictedTo is a comma-separated allow-list of emails.
	// Empty means public. The restriction is inherited downward: a child is
	// never more open than its parent.
	RestrictedTo string

	DisplayOrder int32
	IsFabric     bool
}

// IsActive reports whether the category is in the ACTIVE lifecycle state.
func (c *Category) IsActive() bool {
	return c.Status == CategoryStatusActive
}

// IsPublic reports whether the category carries no allow-list of its own.
// Ancestors may still restrict it.
func (c *Category) IsPublic() bool {
	return strings.TrimSpace(c.RestrictedTo) == ""
}

// AllowedEmails returns the category's own allow-list, trimmed and lowercased,
// with empty entries dropped. A nil result means the category is public.
func (c *Category) AllowedEmails() []string {
	raw := strings.TrimSpace(c.RestrictedTo)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			emails = append(emails, p)
		}
	}
	return emails
}

// Allows reports whether the category's own allow-list admits the email.
// It does not consult ancestors; inherited restrictions are the access
// resolver's concern.
func (c *Category) Allows(email string) bool {
	allowed := c.AllowedEmails()
	if len(allowed) == 0 {
		return true
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}

	for _, a := range allowed {
		if a == email {
			return true
		}
	}
	return false
}

// CategoryTree is a materialized category with its accessible descendants.
type CategoryTree struct {
	Category
	Children []*CategoryTree
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// CategoryStore provides read access to category nodes.
// Implementations are plain accessors; no caching contract is implied.
type CategoryStore interface {
	// GetByID retrieves a category by id, any status.
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// GetChildren returns the direct children of a category, ordered by
	// (display order, name). A nil parentID returns the root categories.
	GetChildren(ctx context.Context, parentID *uuid.UUID) ([]Category, error)

	// GetBySlug retrieves a category by slug, any status.
	GetBySlug(ctx context.Context, slug string) (*Category, error)

	// GetBySlugAndStatus retrieves a category by slug and lifecycle status.
	GetBySlugAndStatus(ctx context.Context, slug string, status CategoryStatus) (*Category, error)
}

// Category-specific errors.
var (
	ErrCategoryNotFound = &Error{Code: ENOTFOUND, Message: "Category not found"}
)
