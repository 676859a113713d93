package db

import "fmt"

func (d *DB) migrate() error {
	if _, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var version int
	err := d.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return fmt.Errorf("getting schema version: %w", err)
	}

	migrations := []func(*DB) error{
		migrateV1,
		migrateV2,
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](d); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := d.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

func migrateV1(d *DB) error {
	statements := []string{
		`CREATE TABLE workshop_items (
			workshop_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE catalog_searches (
			catalog_id TEXT NOT NULL,
			query TEXT NOT NULL,
			cached_at DATETIME NOT NULL,
			PRIMARY KEY(catalog_id, query)
		)`,
		`CREATE TABLE catalog_search_results (
			catalog_id TEXT NOT NULL,
			query TEXT NOT NULL,
			position INTEGER NOT NULL,
			workshop_id INTEGER NOT NULL REFERENCES workshop_items(workshop_id),
			PRIMARY KEY(catalog_id, query, position),
			FOREIGN KEY(catalog_id, query)
				REFERENCES catalog_searches(catalog_id, query)
				ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	return nil
}

func migrateV2(d *DB) error {
	// Files linked into the game's Mods directory, per workshop item
	_, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS deployed_files (
			workshop_id INTEGER NOT NULL,
			relative_path TEXT NOT NULL,
			deployed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(workshop_id, relative_path)
		)
	`)
	return err
}
