package workshop

import (
	"context"
	"time"

	"rwm/internal/domain"
	"rwm/internal/source"

	"github.com/charmbracelet/log"
)

// SearchStore persists catalog query results
type SearchStore interface {
	GetSearch(catalogID, query string, maxAge time.Duration) ([]domain.Candidate, bool, error)
	SaveSearch(catalogID, query string, results []domain.Candidate) error
}

// Cached serves repeated queries from a SearchStore while they are
// younger than the TTL. A zero TTL disables caching.
type Cached struct {
	inner  source.Catalog
	store  SearchStore
	ttl    time.Duration
	logger *log.Logger
}

// NewCached wraps inner with a result cache
func NewCached(inner source.Catalog, store SearchStore, ttl time.Duration, logger *log.Logger) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl, logger: logger}
}

// ID returns the wrapped catalog's identifier
func (c *Cached) ID() string { return c.inner.ID() }

// Name returns the wrapped catalog's display name
func (c *Cached) Name() string { return c.inner.Name() }

// Search implements source.Catalog. Cache failures only cost a refetch.
func (c *Cached) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	if c.store == nil || c.ttl <= 0 {
		return c.inner.Search(ctx, query)
	}

	cached, ok, err := c.store.GetSearch(c.inner.ID(), query, c.ttl)
	if err != nil {
		c.warn("reading catalog cache", "query", query, "err", err)
	} else if ok {
		c.debug("catalog cache hit", "query", query, "count", len(cached))
		return cached, nil
	}

	results, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.store.SaveSearch(c.inner.ID(), query, results); err != nil {
		c.warn("writing catalog cache", "query", query, "err", err)
	}
	return results, nil
}

func (c *Cached) warn(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, kv...)
	}
}

func (c *Cached) debug(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, kv...)
	}
}
