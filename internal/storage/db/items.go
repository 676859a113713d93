package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rwm/internal/domain"
)

// SaveWorkshopItems upserts catalog metadata. Invalid records are skipped.
func (d *DB) SaveWorkshopItems(items []domain.Candidate) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveItems(tx, items); err != nil {
		return err
	}
	return tx.Commit()
}

func saveItems(tx *sql.Tx, items []domain.Candidate) error {
	now := time.Now()
	for _, item := range items {
		if item.Validate() != nil {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO workshop_items (workshop_id, title, author, description, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(workshop_id) DO UPDATE SET
				title = excluded.title,
				author = CASE WHEN excluded.author = '' THEN workshop_items.author ELSE excluded.author END,
				description = excluded.description,
				updated_at = excluded.updated_at
		`, int64(item.ID), item.Title, item.Author, item.Description, now)
		if err != nil {
			return fmt.Errorf("saving workshop item %d: %w", item.ID, err)
		}
	}
	return nil
}

// GetWorkshopItem returns stored metadata, or domain.ErrModNotFound
func (d *DB) GetWorkshopItem(id uint64) (*domain.Candidate, error) {
	var c domain.Candidate
	var raw int64
	err := d.QueryRow(`
		SELECT workshop_id, title, author, description FROM workshop_items
		WHERE workshop_id = ?
	`, int64(id)).Scan(&raw, &c.Title, &c.Author, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrModNotFound
		}
		return nil, fmt.Errorf("getting workshop item: %w", err)
	}
	c.ID = uint64(raw)
	return &c, nil
}
