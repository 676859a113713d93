package source

import (
	"context"

	"rwm/internal/domain"
)

// Catalog is a searchable listing of RimWorld mods
type Catalog interface {
	// Identity
	ID() string
	Name() string

	// Search returns the candidates matching query, in the catalog's order.
	// Records may be invalid; callers filter with Candidate.Validate.
	Search(ctx context.Context, query string) ([]domain.Candidate, error)
}
