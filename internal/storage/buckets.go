package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mwhitford/sortinghat/internal/model"
)

// GetBuckets returns all buckets in the given taxonomy, ordered by name.
func (s *SQLiteStorage) GetBuckets(ctx context.Context, taxonomy model.Taxonomy) ([]model.Bucket, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(string(taxonomy), "taxonomy"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, taxonomy, description, keywords, terminal, created_at
		FROM buckets
		WHERE taxonomy = ?
		ORDER BY name
	`, string(taxonomy))
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var buckets []model.Bucket
	for rows.Next() {
		bucket, err := scanBucket(rows)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, *bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buckets: %w", err)
	}
	return buckets, nil
}

// GetBucketByName returns the bucket with the given name, searching both
// taxonomies, or ErrBucketNotFound.
func (s *SQLiteStorage) GetBucketByName(ctx context.Context, name string) (*model.Bucket, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, taxonomy, description, keywords, terminal, created_at
		FROM buckets
		WHERE name = ?
		ORDER BY taxonomy
		LIMIT 1
	`, name)

	bucket, err := scanBucket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBucketNotFound
	}
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

func scanBucket(row rowScanner) (*model.Bucket, error) {
	var b model.Bucket
	var taxonomy, keywords string

	err := row.Scan(&b.ID, &b.Name, &taxonomy, &b.Description, &keywords, &b.Terminal, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bucket: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &b.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keywords for %s: %w", b.Name, err)
	}
	if len(b.Keywords) == 0 {
		b.Keywords = nil
	}
	b.Taxonomy = model.Taxonomy(taxonomy)

	return &b, nil
}
