package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/mwhitford/sortinghat/internal/service"
)

// SaveContacts upserts contacts keyed by email. New emails insert; known
// emails merge per model.Contact.Merge so repeated imports never erase
// existing data. The whole batch commits in one transaction.
func (s *SQLiteStorage) SaveContacts(ctx context.Context, contacts []model.Contact) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateContacts(contacts); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, contact := range contacts {
		existing, err := getContactByEmailTx(ctx, tx, contact.Email)
		if err != nil && !errors.Is(err, ErrContactNotFound) {
			return fmt.Errorf("failed to look up contact %s: %w", contact.Email, err)
		}

		if existing == nil {
			if err := insertContactTx(ctx, tx, contact); err != nil {
				return err
			}
			continue
		}

		existing.Merge(contact)
		if err := updateContactTx(ctx, tx, *existing); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertContactTx(ctx context.Context, tx *sql.Tx, contact model.Contact) error {
	tags, history, err := marshalLists(contact)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contacts (email, name, company, tags, summit_history, engagement, main_bucket)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, contact.Email, contact.Name, contact.Company, tags, history, string(contact.Engagement), contact.MainBucket)
	if err != nil {
		return fmt.Errorf("failed to insert contact %s: %w", contact.Email, err)
	}
	return nil
}

func updateContactTx(ctx context.Context, tx *sql.Tx, contact model.Contact) error {
	tags, history, err := marshalLists(contact)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, company = ?, tags = ?, summit_history = ?, engagement = ?,
		    main_bucket = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, contact.Name, contact.Company, tags, history, string(contact.Engagement), contact.MainBucket, contact.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact %s: %w", contact.Email, err)
	}
	return nil
}

func marshalLists(contact model.Contact) (tags, history string, err error) {
	tagsBytes, err := json.Marshal(orEmpty(contact.Tags))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags for %s: %w", contact.Email, err)
	}
	historyBytes, err := json.Marshal(orEmpty(contact.SummitHistory))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal summit history for %s: %w", contact.Email, err)
	}
	return string(tagsBytes), string(historyBytes), nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// GetContactByEmail returns the contact with the given email, or
// ErrContactNotFound.
func (s *SQLiteStorage) GetContactByEmail(ctx context.Context, email string) (*model.Contact, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return getContactByEmailTx(ctx, s.db, email)
}

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getContactByEmailTx(ctx context.Context, q queryable, email string) (*model.Contact, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, email, name, company, tags, summit_history, engagement, main_bucket, created_at, updated_at
		FROM contacts
		WHERE email = ?
	`, email)

	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}
	return contact, nil
}

// GetContacts returns contacts matching the filter, ordered by ID so
// Limit/Offset paging is stable.
func (s *SQLiteStorage) GetContacts(ctx context.Context, filter service.ContactFilter) ([]model.Contact, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args := buildContactQuery(`
		SELECT c.id, c.email, c.name, c.company, c.tags, c.summit_history,
		       c.engagement, c.main_bucket, c.created_at, c.updated_at
		FROM contacts c
	`, filter)
	query += " ORDER BY c.id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT clause.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

// CountContacts counts contacts matching the filter, ignoring Limit and
// Offset.
func (s *SQLiteStorage) CountContacts(ctx context.Context, filter service.ContactFilter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	query, args := buildContactQuery("SELECT COUNT(*) FROM contacts c", filter)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// buildContactQuery appends the filter's WHERE clauses. Unclassified means
// no bucket association exists yet.
func buildContactQuery(base string, filter service.ContactFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Unclassified {
		clauses = append(clauses, "NOT EXISTS (SELECT 1 FROM contact_buckets cb WHERE cb.contact_id = c.id)")
	}

	if len(filter.IDs) > 0 {
		placeholders := strings.Repeat("?,", len(filter.IDs))
		clauses = append(clauses, fmt.Sprintf("c.id IN (%s)", placeholders[:len(placeholders)-1]))
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	if len(clauses) > 0 {
		base += " WHERE " + strings.Join(clauses, " AND ")
	}
	return base, args
}

// UpdateContactMainBucket sets a contact's main bucket assignment.
func (s *SQLiteStorage) UpdateContactMainBucket(ctx context.Context, contactID int64, bucket string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(bucket, "bucket"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET main_bucket = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, bucket, contactID)
	if err != nil {
		return fmt.Errorf("failed to update main bucket: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// GetContactsByBucket returns contacts assigned to the named bucket,
// whether as their main bucket or through an association.
func (s *SQLiteStorage) GetContactsByBucket(ctx context.Context, bucketName string) ([]model.Contact, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(bucketName, "bucketName"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.email, c.name, c.company, c.tags, c.summit_history,
		       c.engagement, c.main_bucket, c.created_at, c.updated_at
		FROM contacts c
		WHERE c.main_bucket = ?
		UNION
		SELECT c.id, c.email, c.name, c.company, c.tags, c.summit_history,
		       c.engagement, c.main_bucket, c.created_at, c.updated_at
		FROM contacts c
		JOIN contact_buckets cb ON cb.contact_id = c.id
		JOIN buckets b ON b.id = cb.bucket_id
		WHERE b.name = ?
		ORDER BY 1
	`, bucketName, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	var tags, history, engagement string

	err := row.Scan(&c.ID, &c.Email, &c.Name, &c.Company, &tags, &history,
		&engagement, &c.MainBucket, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags for %s: %w", c.Email, err)
	}
	if err := json.Unmarshal([]byte(history), &c.SummitHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summit history for %s: %w", c.Email, err)
	}
	if len(c.Tags) == 0 {
		c.Tags = nil
	}
	if len(c.SummitHistory) == 0 {
		c.SummitHistory = nil
	}
	c.Engagement = model.EngagementLevel(engagement)

	return &c, nil
}

func scanContacts(rows *sql.Rows) ([]model.Contact, error) {
	var contacts []model.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}
