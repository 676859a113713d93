package workshop

import (
	"context"
	"fmt"
	"net/http"

	"rwm/internal/domain"
)

// Workshop implements source.Catalog over the Steam Workshop browse page
type Workshop struct {
	client *Client
}

// New creates a workshop catalog. An empty baseURL uses steamcommunity.com.
func New(httpClient *http.Client, baseURL string) *Workshop {
	return &Workshop{client: NewClient(httpClient, baseURL)}
}

// ID returns the source identifier
func (w *Workshop) ID() string {
	return "workshop"
}

// Name returns the display name
func (w *Workshop) Name() string {
	return "Steam Workshop"
}

// Search returns the first page of workshop results for query
func (w *Workshop) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	items, err := w.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching workshop for %q: %w", query, err)
	}
	return items, nil
}
