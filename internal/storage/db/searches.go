package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rwm/internal/domain"
)

// SaveSearch stores the results of a catalog query, replacing older ones
func (d *DB) SaveSearch(catalogID, query string, results []domain.Candidate) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveItems(tx, results); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM catalog_searches WHERE catalog_id = ? AND query = ?`, catalogID, query); err != nil {
		return fmt.Errorf("clearing cached search: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO catalog_searches (catalog_id, query, cached_at) VALUES (?, ?, ?)
	`, catalogID, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving cached search: %w", err)
	}

	position := 0
	for _, r := range results {
		if r.Validate() != nil {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO catalog_search_results (catalog_id, query, position, workshop_id)
			VALUES (?, ?, ?, ?)
		`, catalogID, query, position, int64(r.ID)); err != nil {
			return fmt.Errorf("saving cached result: %w", err)
		}
		position++
	}

	return tx.Commit()
}

// GetSearch returns cached results younger than maxAge. The bool is false
// on a miss or when the entry has expired.
func (d *DB) GetSearch(catalogID, query string, maxAge time.Duration) ([]domain.Candidate, bool, error) {
	var cachedAt time.Time
	err := d.QueryRow(`
		SELECT cached_at FROM catalog_searches WHERE catalog_id = ? AND query = ?
	`, catalogID, query).Scan(&cachedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getting cached search: %w", err)
	}
	if time.Since(cachedAt) > maxAge {
		return nil, false, nil
	}

	rows, err := d.Query(`
		SELECT w.workshop_id, w.title, w.author, w.description
		FROM catalog_search_results r
		JOIN workshop_items w ON w.workshop_id = r.workshop_id
		WHERE r.catalog_id = ? AND r.query = ?
		ORDER BY r.position ASC
	`, catalogID, query)
	if err != nil {
		return nil, false, fmt.Errorf("querying cached results: %w", err)
	}
	defer rows.Close()

	results := []domain.Candidate{}
	for rows.Next() {
		var c domain.Candidate
		var raw int64
		if err := rows.Scan(&raw, &c.Title, &c.Author, &c.Description); err != nil {
			return nil, false, fmt.Errorf("scanning cached result: %w", err)
		}
		c.ID = uint64(raw)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return results, true, nil
}

// PruneSearches deletes cached searches older than maxAge
func (d *DB) PruneSearches(maxAge time.Duration) (int64, error) {
	result, err := d.Exec(`DELETE FROM catalog_searches WHERE cached_at < ?`, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("pruning cached searches: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
