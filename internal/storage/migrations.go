package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mwhitford/sortinghat/internal/rules"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. Failing to reach it is a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS contacts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					email TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					company TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '[]',
					summit_history TEXT NOT NULL DEFAULT '[]',
					engagement TEXT NOT NULL DEFAULT '',
					main_bucket TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_contacts_main_bucket ON contacts(main_bucket)`,

				`CREATE TABLE IF NOT EXISTS buckets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					taxonomy TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					keywords TEXT NOT NULL DEFAULT '[]',
					terminal INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(taxonomy, name)
				)`,

				`CREATE TABLE IF NOT EXISTS contact_buckets (
					contact_id INTEGER NOT NULL,
					bucket_id INTEGER NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(contact_id, bucket_id),
					FOREIGN KEY (contact_id) REFERENCES contacts(id),
					FOREIGN KEY (bucket_id) REFERENCES buckets(id)
				)`,
				`CREATE INDEX idx_contact_buckets_bucket ON contact_buckets(bucket_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed bucket taxonomies",
		Up: func(tx *sql.Tx) error {
			stmt, err := tx.Prepare(`
				INSERT OR IGNORE INTO buckets (name, taxonomy, description, keywords, terminal)
				VALUES (?, ?, ?, ?, ?)
			`)
			if err != nil {
				return fmt.Errorf("failed to prepare seed statement: %w", err)
			}
			defer func() { _ = stmt.Close() }()

			taxonomies := append(rules.DefaultMainTaxonomy(), rules.DefaultPersonalityTaxonomy()...)
			for _, bucket := range taxonomies {
				keywords, err := json.Marshal(bucket.Keywords)
				if err != nil {
					return fmt.Errorf("failed to marshal keywords for %s: %w", bucket.Name, err)
				}
				if _, err := stmt.Exec(bucket.Name, string(bucket.Taxonomy), bucket.Description, string(keywords), bucket.Terminal); err != nil {
					return fmt.Errorf("failed to seed bucket %s: %w", bucket.Name, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	var finalVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	if finalVersion < ExpectedSchemaVersion {
		return fmt.Errorf("schema version %d below expected %d", finalVersion, ExpectedSchemaVersion)
	}

	return nil
}
