// Package catalog resolves the category hierarchy: slug-path navigation,
// subtree materialization, and inherited email-based access restrictions.
package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/mercata/internal/domain"
	"github.com/dukerupert/mercata/internal/telemetry"
)

// Service provides read-side catalog hierarchy operations.
type Service struct {
	store   domain.CategoryStore
	logger  *slog.Logger
	metrics *telemetry.EngineMetrics
}

// NewService creates a catalog service. metrics may be nil.
func NewService(store domain.CategoryStore, logger *slog.Logger, metrics *telemetry.EngineMetrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// ResolveCategoryPath resolves a slash-separated slug path of unbounded depth
// to its leaf category and returns the leaf's full accessible subtree.
//
// Returns ENOTFOUND when any segment matches nothing or matches a category
// the caller cannot see, and EINACTIVE (with the partial path) when a segment
// matches an inactive category.
func (s *Service) ResolveCategoryPath(ctx context.Context, path, callerEmail string, isPrivileged bool) (*domain.CategoryTree, error) {
	const op = "catalog.resolve"

	segments := splitPath(path)
	if len(segments) == 0 {
		s.metrics.RecordPathResolution("error", 0)
		return nil, domain.Invalid(op, "category path is empty")
	}

	access := NewAccessResolver(s.store, callerEmail, isPrivileged)

	leaf, err := walkPath(ctx, s.store, access, segments)
	if err != nil {
		s.metrics.RecordPathResolution(outcomeFor(err), len(segments))
		return nil, err
	}

	tree, err := buildSubtree(ctx, s.store, access, leaf)
	if err != nil {
		s.metrics.RecordPathResolution("error", len(segments))
		return nil, err
	}

	s.metrics.RecordPathResolution("ok", len(segments))
	s.logger.Debug("resolved category path",
		"path", path,
		"leaf", leaf.Slug,
		"children", len(tree.Children),
	)
	return tree, nil
}

// BuildTree materializes the category with the given id plus all accessible
// descendants. A root the caller cannot see returns ENOTFOUND, never an
// empty tree, so tree shape alone cannot distinguish denial from emptiness.
func (s *Service) BuildTree(ctx context.Context, rootID uuid.UUID, callerEmail string, isPrivileged bool) (*domain.CategoryTree, error) {
	const op = "catalog.build_tree"

	root, err := s.store.GetByID(ctx, rootID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			s.metrics.RecordTreeBuild("not_found")
			return nil, err
		}
		s.metrics.RecordTreeBuild("error")
		return nil, domain.Internal(err, op, "failed to load category")
	}

	access := NewAccessResolver(s.store, callerEmail, isPrivileged)

	ok, err := access.IsAccessible(ctx, root)
	if err != nil {
		s.metrics.RecordTreeBuild("error")
		return nil, err
	}
	if !ok {
		s.metrics.RecordTreeBuild("not_found")
		return nil, domain.NotFound(op, "category", rootID.String())
	}

	tree, err := buildSubtree(ctx, s.store, access, root)
	if err != nil {
		s.metrics.RecordTreeBuild("error")
		return nil, err
	}

	s.metrics.RecordTreeBuild("ok")
	return tree, nil
}

func outcomeFor(err error) string {
	switch domain.ErrorCode(err) {
	case domain.ENOTFOUND:
		return "not_found"
	case domain.EINACTIVE:
		return "inactive"
	default:
		return "error"
	}
}
