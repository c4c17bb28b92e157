package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitford/sortinghat/internal/common"
	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/mwhitford/sortinghat/internal/rules"
	"github.com/mwhitford/sortinghat/internal/service"
	"github.com/mwhitford/sortinghat/internal/storage"
)

type stubRefiner struct {
	bucket string
	calls  int
}

func (s *stubRefiner) ClassifyPersonality(_ context.Context, _ []string) string {
	s.calls++
	return s.bucket
}

func setupEngine(t *testing.T, cfg Config, refiner PersonalityRefiner) (*Engine, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	classifier := rules.NewClassifier(rules.DefaultConfig())
	return New(store, classifier, refiner, cfg, nil), store
}

func seedContacts(t *testing.T, store *storage.SQLiteStorage, n int) {
	t.Helper()

	contacts := make([]model.Contact, 0, n)
	for i := 0; i < n; i++ {
		contacts = append(contacts, model.Contact{
			Email: fmt.Sprintf("contact%03d@example.com", i),
			Tags:  []string{"Health Summit", "Keto Challenge"},
		})
	}
	require.NoError(t, store.SaveContacts(context.Background(), contacts))
}

func TestRunClassifiesAllContacts(t *testing.T) {
	eng, store := setupEngine(t, Config{PageSize: 10, BatchSize: 4, Parallelism: 3}, nil)
	ctx := context.Background()
	seedContacts(t, store, 25)

	result, err := eng.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 25, result.TotalProcessed)
	assert.Len(t, result.ContactIDs, 25)

	remaining, err := store.CountContacts(ctx, service.ContactFilter{Unclassified: true})
	require.NoError(t, err)
	assert.Zero(t, remaining)

	contact, err := store.GetContactByEmail(ctx, "contact000@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Health", contact.MainBucket)

	associations, err := store.GetAssociationsByContact(ctx, contact.ID)
	require.NoError(t, err)
	require.Len(t, associations, 1)
}

func TestRunProgressMonotonic(t *testing.T) {
	eng, store := setupEngine(t, Config{PageSize: 8, BatchSize: 3, Parallelism: 2}, nil)
	seedContacts(t, store, 20)

	var mu sync.Mutex
	var updates []model.Progress
	_, err := eng.Run(context.Background(), Options{
		OnProgress: func(p model.Progress) {
			mu.Lock()
			updates = append(updates, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, updates)

	prev := 0
	for _, p := range updates {
		assert.GreaterOrEqual(t, p.Processed, prev, "progress must never move backwards")
		assert.LessOrEqual(t, p.Processed, p.Total)
		prev = p.Processed
	}
	assert.Equal(t, 20, updates[len(updates)-1].Processed)
	assert.Equal(t, 100, updates[len(updates)-1].Percent())
}

func TestRunCancellation(t *testing.T) {
	eng, store := setupEngine(t, Config{PageSize: 5, BatchSize: 5, Parallelism: 1}, nil)
	seedContacts(t, store, 30)

	ctx, cancel := context.WithCancel(context.Background())
	result, err := eng.Run(ctx, Options{
		OnProgress: func(model.Progress) { cancel() },
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, common.IsCancellation(err))
	require.NotNil(t, result)
	assert.Less(t, result.TotalProcessed, 30)

	// Whatever was classified before the stop stays classified.
	remaining, err := store.CountContacts(context.Background(), service.ContactFilter{Unclassified: true})
	require.NoError(t, err)
	assert.Equal(t, 30-result.TotalProcessed, remaining)
}

func TestRunHonorsLimit(t *testing.T) {
	eng, store := setupEngine(t, Config{PageSize: 10, BatchSize: 10, Parallelism: 2}, nil)
	ctx := context.Background()
	seedContacts(t, store, 12)

	result, err := eng.Run(ctx, Options{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalProcessed)

	remaining, err := store.CountContacts(ctx, service.ContactFilter{Unclassified: true})
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)
}

func TestRunContactSubset(t *testing.T) {
	eng, store := setupEngine(t, Config{}, nil)
	ctx := context.Background()
	seedContacts(t, store, 6)

	all, err := store.GetContacts(ctx, service.ContactFilter{})
	require.NoError(t, err)
	targets := []int64{all[1].ID, all[4].ID}

	result, err := eng.Run(ctx, Options{ContactIDs: targets})
	require.NoError(t, err)
	assert.ElementsMatch(t, targets, result.ContactIDs)

	remaining, err := store.CountContacts(ctx, service.ContactFilter{Unclassified: true})
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestRunNoContacts(t *testing.T) {
	eng, _ := setupEngine(t, Config{}, nil)

	_, err := eng.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, common.ErrNoContacts)
}

func TestRunAIPath(t *testing.T) {
	refiner := &stubRefiner{bucket: "Biohacking"}
	eng, store := setupEngine(t, Config{PageSize: 10, BatchSize: 5}, refiner)
	ctx := context.Background()
	seedContacts(t, store, 5)

	var updates int
	result, err := eng.Run(ctx, Options{
		UseAI:      true,
		OnProgress: func(model.Progress) { updates++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 5, refiner.calls)
	assert.Equal(t, 5, updates, "AI path reports per contact")

	biohacking, err := store.GetBucketByName(ctx, "Biohacking")
	require.NoError(t, err)
	count, err := store.CountAssociationsByBucket(ctx, biohacking.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRunAIWithoutRefiner(t *testing.T) {
	eng, store := setupEngine(t, Config{}, nil)
	seedContacts(t, store, 1)

	_, err := eng.Run(context.Background(), Options{UseAI: true})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestRunIsIdempotentAcrossRestarts(t *testing.T) {
	eng, store := setupEngine(t, Config{}, nil)
	ctx := context.Background()
	seedContacts(t, store, 4)

	first, err := eng.Run(ctx, Options{})
	require.NoError(t, err)
	require.Equal(t, 4, first.TotalProcessed)

	// Re-running the same IDs rewrites the same rows without duplicates.
	second, err := eng.Run(ctx, Options{ContactIDs: first.ContactIDs})
	require.NoError(t, err)
	assert.Equal(t, 4, second.TotalProcessed)

	contact, err := store.GetContactByEmail(ctx, "contact000@example.com")
	require.NoError(t, err)
	associations, err := store.GetAssociationsByContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Len(t, associations, 1)
}

// failingStorage fails main-bucket writes for selected contacts, or for
// every contact when failAll is set.
type failingStorage struct {
	service.Storage
	failIDs map[int64]struct{}
	failAll bool
}

func (f *failingStorage) UpdateContactMainBucket(ctx context.Context, contactID int64, bucket string) error {
	if _, ok := f.failIDs[contactID]; ok || f.failAll {
		return errors.New("disk I/O error")
	}
	return f.Storage.UpdateContactMainBucket(ctx, contactID, bucket)
}

func TestRunContinuesPastContactWriteFailure(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	seedContacts(t, store, 10)

	all, err := store.GetContacts(ctx, service.ContactFilter{})
	require.NoError(t, err)
	victim := all[2].ID

	flaky := &failingStorage{Storage: store, failIDs: map[int64]struct{}{victim: {}}}
	eng := New(flaky, rules.NewClassifier(rules.DefaultConfig()),
		nil, Config{PageSize: 4, BatchSize: 2, Parallelism: 2}, nil)

	result, err := eng.Run(ctx, Options{})
	require.NoError(t, err, "a single bad contact must not abort the run")
	assert.Equal(t, 9, result.TotalProcessed)
	assert.NotContains(t, result.ContactIDs, victim)

	// The failed contact is the only one left unclassified, so a later
	// run can pick it up again.
	pending, err := store.GetContacts(ctx, service.ContactFilter{Unclassified: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, victim, pending[0].ID)
}

func TestRunAbortsWhenEveryWriteFails(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	seedContacts(t, store, 6)

	broken := &failingStorage{Storage: store, failAll: true}
	eng := New(broken, rules.NewClassifier(rules.DefaultConfig()),
		nil, Config{PageSize: 3, BatchSize: 3, Parallelism: 2}, nil)

	result, err := eng.Run(ctx, Options{})
	require.ErrorIs(t, err, common.ErrClassificationFailed,
		"a page with zero successes must abort instead of refetching forever")
	assert.Zero(t, result.TotalProcessed)

	pending, err := store.CountContacts(ctx, service.ContactFilter{Unclassified: true})
	require.NoError(t, err)
	assert.Equal(t, 6, pending)
}

func TestSplitBatch(t *testing.T) {
	batch := make([]model.Contact, 10)

	subs := splitBatch(batch, 3)
	require.Len(t, subs, 3)
	total := 0
	for _, sub := range subs {
		total += len(sub)
	}
	assert.Equal(t, 10, total)

	assert.Len(t, splitBatch(batch, 1), 1)
	assert.Len(t, splitBatch(batch[:2], 5), 2)
}
