package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwhitford/sortinghat/internal/model"
)

// SaveAssociations writes contact-bucket links in chunks. Re-writing an
// existing pair is a no-op, so a retried or re-run batch never produces
// duplicate rows.
func (s *SQLiteStorage) SaveAssociations(ctx context.Context, associations []model.Association) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssociations(associations); err != nil {
		return err
	}
	if len(associations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(associations); start += associationChunkSize {
		end := start + associationChunkSize
		if end > len(associations) {
			end = len(associations)
		}
		chunk := associations[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*2)
		for _, a := range chunk {
			placeholders = append(placeholders, "(?, ?)")
			args = append(args, a.ContactID, a.BucketID)
		}

		query := fmt.Sprintf(
			"INSERT OR IGNORE INTO contact_buckets (contact_id, bucket_id) VALUES %s",
			strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert associations: %w", err)
		}
	}

	return tx.Commit()
}

// GetAssociationsByContact returns all bucket links for a contact.
func (s *SQLiteStorage) GetAssociationsByContact(ctx context.Context, contactID int64) ([]model.Association, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT contact_id, bucket_id, created_at
		FROM contact_buckets
		WHERE contact_id = ?
		ORDER BY bucket_id
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query associations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var associations []model.Association
	for rows.Next() {
		var a model.Association
		if err := rows.Scan(&a.ContactID, &a.BucketID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		associations = append(associations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating associations: %w", err)
	}
	return associations, nil
}

// CountAssociationsByBucket counts contacts linked to a bucket.
func (s *SQLiteStorage) CountAssociationsByBucket(ctx context.Context, bucketID int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contact_buckets WHERE bucket_id = ?", bucketID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count associations: %w", err)
	}
	return count, nil
}
