package db

import (
	"fmt"
)

// SaveDeployedFiles replaces the recorded file set of a workshop item
func (d *DB) SaveDeployedFiles(workshopID uint64, relativePaths []string) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM deployed_files WHERE workshop_id = ?`, int64(workshopID)); err != nil {
		return fmt.Errorf("clearing deployed files: %w", err)
	}
	for _, p := range relativePaths {
		if _, err := tx.Exec(`
			INSERT INTO deployed_files (workshop_id, relative_path) VALUES (?, ?)
		`, int64(workshopID), p); err != nil {
			return fmt.Errorf("saving deployed file %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// GetDeployedFiles returns the files recorded for a workshop item, sorted
func (d *DB) GetDeployedFiles(workshopID uint64) ([]string, error) {
	rows, err := d.Query(`
		SELECT relative_path FROM deployed_files
		WHERE workshop_id = ?
		ORDER BY relative_path
	`, int64(workshopID))
	if err != nil {
		return nil, fmt.Errorf("querying deployed files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scanning deployed file: %w", err)
		}
		files = append(files, path)
	}
	return files, rows.Err()
}

// DeployedItems returns the workshop IDs with recorded files
func (d *DB) DeployedItems() ([]uint64, error) {
	rows, err := d.Query(`SELECT DISTINCT workshop_id FROM deployed_files ORDER BY workshop_id`)
	if err != nil {
		return nil, fmt.Errorf("querying deployed items: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning deployed item: %w", err)
		}
		ids = append(ids, uint64(raw))
	}
	return ids, rows.Err()
}
