package core

import (
	"rwm/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// FilterResult is the output of Filter
type FilterResult struct {
	Records    []domain.Candidate
	TitleWidth int // Widest kept title, in terminal cells
}

// Filter returns the records for which any enabled field fuzzy-matches query.
// Matching is a case-insensitive ordered subsequence test. Input order is
// preserved and invalid records are dropped.
func Filter(records []domain.Candidate, spec domain.FilterSpec, query string) FilterResult {
	var result FilterResult
	if len(records) == 0 || query == "" {
		return result
	}

	fields := spec.Effective()
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		if !matchRecord(r, fields, query) {
			continue
		}
		if w := lipgloss.Width(r.Title); w > result.TitleWidth {
			result.TitleWidth = w
		}
		result.Records = append(result.Records, r)
	}

	return result
}

// ValidOnly drops records that fail Validate, keeping order
func ValidOnly(records []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(records))
	for _, r := range records {
		if r.Validate() == nil {
			out = append(out, r)
		}
	}
	return out
}

func matchRecord(r domain.Candidate, fields domain.Field, query string) bool {
	if fields.Has(domain.FieldTitle) && fuzzyMatch(query, r.Title) {
		return true
	}
	if fields.Has(domain.FieldAuthor) && fuzzyMatch(query, r.Author) {
		return true
	}
	if fields.Has(domain.FieldDescription) && fuzzyMatch(query, r.Description) {
		return true
	}
	if fields.Has(domain.FieldID) && fuzzyMatch(query, r.IDString()) {
		return true
	}
	return false
}

func fuzzyMatch(pattern, value string) bool {
	if value == "" {
		return false
	}
	return len(fuzzy.Find(pattern, []string{value})) > 0
}
