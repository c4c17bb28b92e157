package model

import "time"

// Taxonomy identifies which bucket dimension a bucket belongs to.
type Taxonomy string

// Bucket taxonomies.
const (
	TaxonomyMain        Taxonomy = "main"
	TaxonomyPersonality Taxonomy = "personality"
)

// Bucket is an immutable taxonomy entry: a named category with the
// lower-cased keywords that vote for it during rule-based scoring.
type Bucket struct {
	CreatedAt   time.Time
	Name        string
	Description string
	Taxonomy    Taxonomy
	Keywords    []string
	ID          int64
	Terminal    bool
}

// Association links a contact to a non-main bucket. At most one row may
// exist per (contact, bucket) pair; inserts are idempotent.
type Association struct {
	CreatedAt time.Time
	ContactID int64
	BucketID  int64
}
