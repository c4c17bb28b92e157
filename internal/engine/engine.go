// Package engine orchestrates classification runs over the contact store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mwhitford/sortinghat/internal/common"
	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/mwhitford/sortinghat/internal/rules"
	"github.com/mwhitford/sortinghat/internal/service"
)

// Default sizing for runs that don't configure their own.
const (
	DefaultPageSize    = 500
	DefaultBatchSize   = 50
	DefaultParallelism = 4
)

// PersonalityRefiner is the AI-assisted personality path. Implementations
// must always return a valid bucket name.
type PersonalityRefiner interface {
	ClassifyPersonality(ctx context.Context, tags []string) string
}

// Config controls how the engine pages and batches its work.
type Config struct {
	PageSize    int
	BatchSize   int
	Parallelism int
}

// Options selects what a single run processes.
type Options struct {
	// ContactIDs restricts the run to specific contacts. When empty, the
	// run targets every contact without a bucket association.
	ContactIDs []int64
	// Limit caps how many contacts the run processes. Zero means no cap.
	Limit int
	// UseAI routes the personality dimension through the refiner instead
	// of the keyword scorer.
	UseAI bool
	// OnProgress, when set, receives progress updates. Updates are
	// per-batch on the rule path and per-contact on the AI path.
	OnProgress service.ProgressFunc
}

// Engine pages contacts out of storage and classifies them in parallel
// batches. Every write it performs is idempotent, so an interrupted run
// can be resumed by starting another one.
type Engine struct {
	storage    service.Storage
	classifier *rules.Classifier
	refiner    PersonalityRefiner
	logger     *slog.Logger
	cfg        Config
}

// New creates a classification engine. The refiner may be nil when AI
// classification is never requested.
func New(storage service.Storage, classifier *rules.Classifier, refiner PersonalityRefiner, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}

	return &Engine{
		storage:    storage,
		classifier: classifier,
		refiner:    refiner,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run executes one classification run. On cancellation it returns the
// partial result alongside the context error; everything already written
// stays written.
func (e *Engine) Run(ctx context.Context, opts Options) (*service.RunResult, error) {
	if opts.UseAI && e.refiner == nil {
		return nil, fmt.Errorf("AI classification requested but no classifier is configured: %w", common.ErrMissingConfig)
	}

	baseFilter := service.ContactFilter{
		IDs:          opts.ContactIDs,
		Unclassified: len(opts.ContactIDs) == 0,
	}

	total, err := e.storage.CountContacts(ctx, baseFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	if total == 0 {
		return nil, common.ErrNoContacts
	}
	if opts.Limit > 0 && total > opts.Limit {
		total = opts.Limit
	}

	bucketIDs, err := e.personalityBucketIDs(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.Info("starting classification run",
		"total", total,
		"batch_size", e.cfg.BatchSize,
		"parallelism", e.cfg.Parallelism,
		"use_ai", opts.UseAI)

	run := &runState{
		total:        total,
		totalBatches: (total + e.cfg.BatchSize - 1) / e.cfg.BatchSize,
		onProgress:   opts.OnProgress,
	}

	result := &service.RunResult{}
	for run.attempted < total {
		if err := ctx.Err(); err != nil {
			return finish(result), err
		}

		page, err := e.fetchPage(ctx, baseFilter, run, total)
		if err != nil {
			return finish(result), err
		}
		if len(page) == 0 {
			break
		}

		pageSucceeded := 0
		for start := 0; start < len(page); start += e.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return finish(result), err
			}

			end := start + e.cfg.BatchSize
			if end > len(page) {
				end = len(page)
			}
			run.currentBatch++

			succeeded, err := e.processBatch(ctx, page[start:end], opts.UseAI, bucketIDs, run)
			result.ContactIDs = append(result.ContactIDs, succeeded...)
			pageSucceeded += len(succeeded)
			if err != nil {
				return finish(result), err
			}
		}

		// A page where every contact failed would otherwise be refetched
		// forever on the unclassified filter.
		if pageSucceeded == 0 {
			return finish(result), fmt.Errorf("no contact in page of %d could be classified: %w",
				len(page), common.ErrClassificationFailed)
		}
	}

	e.logger.Info("classification run complete",
		"processed", len(result.ContactIDs),
		"failed", run.failed)

	return finish(result), nil
}

// runState tracks progress across pages. attempted counts both successes
// and per-contact failures so the reported progress never moves backwards.
type runState struct {
	mu           sync.Mutex
	attempted    int
	failed       int
	currentBatch int
	total        int
	totalBatches int
	onProgress   service.ProgressFunc
}

func (r *runState) recordSuccess() {
	r.mu.Lock()
	r.attempted++
	r.mu.Unlock()
}

func (r *runState) recordFailure() {
	r.mu.Lock()
	r.attempted++
	r.failed++
	r.mu.Unlock()
}

// report delivers a snapshot to the caller. The callback runs under the
// lock so concurrent sub-batches deliver snapshots in non-decreasing
// order.
func (r *runState) report() {
	if r.onProgress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onProgress(model.Progress{
		Processed:    r.attempted,
		Total:        r.total,
		CurrentBatch: r.currentBatch,
		TotalBatches: r.totalBatches,
	})
}

// fetchPage returns the next page of work. On the unclassified filter,
// classified contacts drop out of the result set on their own, so the
// offset only needs to skip contacts that were attempted and failed. On
// an explicit ID filter the set is stable and pages advance normally.
func (e *Engine) fetchPage(ctx context.Context, baseFilter service.ContactFilter, run *runState, total int) ([]model.Contact, error) {
	remaining := total - run.attempted
	limit := e.cfg.PageSize
	if remaining < limit {
		limit = remaining
	}

	filter := baseFilter
	filter.Limit = limit
	if baseFilter.Unclassified {
		filter.Offset = run.failed
	} else {
		filter.Offset = run.attempted
	}

	page, err := e.storage.GetContacts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	return page, nil
}

// processBatch classifies one batch. The rule path fans out across
// parallel sub-batches; the AI path stays sequential so the completion
// service sees one request at a time.
func (e *Engine) processBatch(ctx context.Context, batch []model.Contact, useAI bool, bucketIDs map[string]int64, run *runState) ([]int64, error) {
	if useAI {
		return e.processSequential(ctx, batch, bucketIDs, run)
	}

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var succeeded []int64

	for _, sub := range splitBatch(batch, e.cfg.Parallelism) {
		g.Go(func() error {
			for _, contact := range sub {
				if err := gctx.Err(); err != nil {
					return err
				}

				result := e.classifier.Classify(contact)
				if err := e.writeResult(gctx, result, bucketIDs); err != nil {
					e.logger.Error("failed to classify contact",
						"contact_id", contact.ID,
						"email", contact.Email,
						"error", err)
					run.recordFailure()
					continue
				}

				run.recordSuccess()
				mu.Lock()
				succeeded = append(succeeded, contact.ID)
				mu.Unlock()
			}
			run.report()
			return nil
		})
	}

	err := g.Wait()
	sort.Slice(succeeded, func(i, j int) bool { return succeeded[i] < succeeded[j] })
	return succeeded, err
}

func (e *Engine) processSequential(ctx context.Context, batch []model.Contact, bucketIDs map[string]int64, run *runState) ([]int64, error) {
	var succeeded []int64

	for _, contact := range batch {
		if err := ctx.Err(); err != nil {
			return succeeded, err
		}

		result := e.classifier.Classify(contact)
		if len(contact.Tags) > 0 {
			result.PersonalityBucket = e.refiner.ClassifyPersonality(ctx, contact.Tags)
		}

		if err := e.writeResult(ctx, result, bucketIDs); err != nil {
			e.logger.Error("failed to classify contact",
				"contact_id", contact.ID,
				"email", contact.Email,
				"error", err)
			run.recordFailure()
			run.report()
			continue
		}

		run.recordSuccess()
		succeeded = append(succeeded, contact.ID)
		run.report()
	}

	return succeeded, nil
}

// writeResult persists one classification: the main bucket on the contact
// row and the personality bucket as an association.
func (e *Engine) writeResult(ctx context.Context, result model.Result, bucketIDs map[string]int64) error {
	bucketID, ok := bucketIDs[result.PersonalityBucket]
	if !ok {
		return fmt.Errorf("personality bucket %q is not in the taxonomy", result.PersonalityBucket)
	}

	if err := e.storage.UpdateContactMainBucket(ctx, result.ContactID, result.MainBucket); err != nil {
		return fmt.Errorf("failed to update main bucket: %w", err)
	}

	if err := e.storage.SaveAssociations(ctx, []model.Association{
		{ContactID: result.ContactID, BucketID: bucketID},
	}); err != nil {
		return fmt.Errorf("failed to save association: %w", err)
	}

	return nil
}

func (e *Engine) personalityBucketIDs(ctx context.Context) (map[string]int64, error) {
	buckets, err := e.storage.GetBuckets(ctx, model.TaxonomyPersonality)
	if err != nil {
		return nil, fmt.Errorf("failed to load personality taxonomy: %w", err)
	}

	ids := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		ids[b.Name] = b.ID
	}
	return ids, nil
}

func finish(result *service.RunResult) *service.RunResult {
	result.TotalProcessed = len(result.ContactIDs)
	return result
}

// splitBatch divides a batch into at most n contiguous sub-batches.
func splitBatch(batch []model.Contact, n int) [][]model.Contact {
	if n > len(batch) {
		n = len(batch)
	}
	if n <= 1 {
		return [][]model.Contact{batch}
	}

	subs := make([][]model.Contact, 0, n)
	size := (len(batch) + n - 1) / n
	for start := 0; start < len(batch); start += size {
		end := start + size
		if end > len(batch) {
			end = len(batch)
		}
		subs = append(subs, batch[start:end])
	}
	return subs
}
