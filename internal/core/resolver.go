package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rwm/internal/domain"
	"rwm/internal/source"

	"github.com/charmbracelet/log"
)

// Resolver maps an identifier to a single candidate
type Resolver interface {
	Resolve(ctx context.Context, identifier string, spec domain.FilterSpec) (domain.Candidate, error)
}

// Chooser asks the operator to pick among several candidates
type Chooser interface {
	Choose(ctx context.Context, identifier string, candidates []domain.Candidate) (domain.Candidate, error)
}

// ItemLookup returns previously seen workshop metadata.
// Unknown IDs return domain.ErrModNotFound.
type ItemLookup interface {
	GetWorkshopItem(id uint64) (*domain.Candidate, error)
}

// ItemRecorder stores workshop metadata for later direct lookups
type ItemRecorder interface {
	SaveWorkshopItems(items []domain.Candidate) error
}

// CatalogResolver resolves names through a catalog search
type CatalogResolver struct {
	Catalog source.Catalog
	Chooser Chooser      // Optional
	Items   ItemLookup   // Optional
	Record  ItemRecorder // Optional; receives every name resolved through the catalog
	Logger  *log.Logger
}

// Resolve implements Resolver. Every failure wraps domain.ErrResolution.
func (r *CatalogResolver) Resolve(ctx context.Context, identifier string, spec domain.FilterSpec) (domain.Candidate, error) {
	if id, ok := domain.ExtractWorkshopID(identifier); ok {
		return r.direct(id, identifier), nil
	}

	c, err := r.search(ctx, identifier, spec)
	if err != nil {
		return c, err
	}
	if r.Record != nil {
		if err := r.Record.SaveWorkshopItems([]domain.Candidate{c}); err != nil {
			loggerOrDiscard(r.Logger).Warn("could not record mod metadata", "id", c.ID, "err", err)
		}
	}
	return c, nil
}

func (r *CatalogResolver) search(ctx context.Context, identifier string, spec domain.FilterSpec) (domain.Candidate, error) {
	logger := loggerOrDiscard(r.Logger)

	if r.Catalog == nil {
		return domain.Candidate{}, fmt.Errorf("%w %q: no catalog configured", domain.ErrResolution, identifier)
	}

	logger.Debug("searching catalog", "catalog", r.Catalog.ID(), "query", identifier)
	records, err := r.Catalog.Search(ctx, identifier)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Candidate{}, ctx.Err()
		}
		return domain.Candidate{}, fmt.Errorf("%w %q: searching %s: %v", domain.ErrResolution, identifier, r.Catalog.Name(), err)
	}
	candidates := ValidOnly(records)

	if spec.Enabled {
		query := spec.Query
		if query == "" {
			query = identifier
		}
		candidates = Filter(candidates, spec, query).Records
		logger.Debug("filtered candidates", "fields", spec.Effective().String(), "query", query, "count", len(candidates))
	}

	switch len(candidates) {
	case 0:
		return domain.Candidate{}, fmt.Errorf("%w %q: %w", domain.ErrResolution, identifier, domain.ErrNoCandidates)
	case 1:
		return candidates[0], nil
	}

	if exact, ok := uniqueTitleMatch(candidates, identifier); ok {
		return exact, nil
	}

	if r.Chooser != nil {
		chosen, err := r.Chooser.Choose(ctx, identifier, candidates)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return domain.Candidate{}, ctx.Err()
			}
			return domain.Candidate{}, fmt.Errorf("%w %q: %w", domain.ErrResolution, identifier, err)
		}
		return chosen, nil
	}

	return domain.Candidate{}, fmt.Errorf("%w %q: %w (%d candidates)", domain.ErrResolution, identifier, domain.ErrAmbiguous, len(candidates))
}

func (r *CatalogResolver) direct(id uint64, identifier string) domain.Candidate {
	c := domain.Candidate{ID: id, Title: identifier}
	if r.Items == nil {
		return c
	}
	known, err := r.Items.GetWorkshopItem(id)
	if err != nil || known == nil {
		return c
	}
	c.Title = known.Title
	c.Author = known.Author
	c.Description = known.Description
	return c
}

func uniqueTitleMatch(candidates []domain.Candidate, identifier string) (domain.Candidate, bool) {
	var found domain.Candidate
	n := 0
	for _, c := range candidates {
		if strings.EqualFold(c.Title, identifier) {
			found = c
			n++
		}
	}
	return found, n == 1
}
