// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mwhitford/sortinghat/internal/model"
)

// ContactFilter defines filtering options for contact queries. Limit and
// Offset implement the orchestrator's range-bounded paging.
type ContactFilter struct {
	IDs          []int64
	Unclassified bool
	Limit        int
	Offset       int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Contact operations
	SaveContacts(ctx context.Context, contacts []model.Contact) error
	GetContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error)
	GetContactByEmail(ctx context.Context, email string) (*model.Contact, error)
	CountContacts(ctx context.Context, filter ContactFilter) (int, error)
	UpdateContactMainBucket(ctx context.Context, contactID int64, bucket string) error
	GetContactsByBucket(ctx context.Context, bucketName string) ([]model.Contact, error)

	// Bucket operations
	GetBuckets(ctx context.Context, taxonomy model.Taxonomy) ([]model.Bucket, error)
	GetBucketByName(ctx context.Context, name string) (*model.Bucket, error)

	// Association operations
	SaveAssociations(ctx context.Context, associations []model.Association) error
	GetAssociationsByContact(ctx context.Context, contactID int64) ([]model.Association, error)
	CountAssociationsByBucket(ctx context.Context, bucketID int64) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ProgressFunc receives progress updates during a classification run. It
// may be called at per-contact frequency on the AI path.
type ProgressFunc func(model.Progress)

// RunResult summarizes a completed classification run.
type RunResult struct {
	ContactIDs     []int64
	TotalProcessed int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
