package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mwhitford/sortinghat/internal/common"
	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/mwhitford/sortinghat/internal/service"
)

const personalitySystemPrompt = "You are a contact list segmentation assistant. " +
	"You MUST respond with exactly one bucket name from the provided list, " +
	"with no explanation, punctuation, or extra text."

// PersonalityClassifier refines the personality dimension of a contact via
// a text-completion service. It never returns an error: invalid responses,
// transport failures, and timeouts all fall back to a coarse keyword
// heuristic, so every call terminates in a valid bucket name.
type PersonalityClassifier struct {
	client        Client
	logger        *slog.Logger
	rateLimiter   *rateLimiter
	validBuckets  map[string]struct{}
	buckets       []model.Bucket
	retryOpts     service.RetryOptions
	timeout       time.Duration
	defaultBucket string
}

// NewPersonalityClassifier builds the AI classification path over the
// given personality taxonomy. Terminal taxonomy entries are excluded from
// the prompt and from response validation.
func NewPersonalityClassifier(client Client, taxonomy []model.Bucket, defaultBucket string, cfg Config, logger *slog.Logger) *PersonalityClassifier {
	if logger == nil {
		logger = slog.Default()
	}

	assignable := make([]model.Bucket, 0, len(taxonomy))
	valid := make(map[string]struct{}, len(taxonomy))
	for _, b := range taxonomy {
		if b.Terminal {
			continue
		}
		assignable = append(assignable, b)
		valid[b.Name] = struct{}{}
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &PersonalityClassifier{
		client:        client,
		buckets:       assignable,
		validBuckets:  valid,
		defaultBucket: defaultBucket,
		logger:        logger,
		rateLimiter:   newRateLimiter(cfg.RateLimit),
		retryOpts:     retryOpts,
		timeout:       timeout,
	}
}

// ClassifyPersonality asks the completion service to pick one personality
// bucket for the given tags and validates the answer against the fixed
// taxonomy. All failure modes degrade to the keyword heuristic.
func (p *PersonalityClassifier) ClassifyPersonality(ctx context.Context, tags []string) string {
	if err := p.rateLimiter.wait(ctx); err != nil {
		p.logger.Warn("rate limiter interrupted, using heuristic fallback", "error", err)
		return p.heuristicBucket(tags)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt := p.buildPrompt(tags)

	var bucket string
	err := common.WithRetry(callCtx, func() error {
		response, completeErr := p.client.Complete(callCtx, personalitySystemPrompt, prompt)
		if completeErr != nil {
			return &common.RetryableError{Err: completeErr, Retryable: true}
		}

		candidate := cleanResponse(response)
		if _, ok := p.validBuckets[candidate]; !ok {
			return &common.RetryableError{
				Err:       fmt.Errorf("response %q is not a personality bucket", candidate),
				Retryable: true,
			}
		}

		bucket = candidate
		return nil
	}, p.retryOpts)

	if err != nil {
		p.logger.Warn("AI personality classification failed, using heuristic fallback",
			"error", err,
			"tag_count", len(tags))
		return p.heuristicBucket(tags)
	}

	p.logger.Debug("AI personality classification succeeded",
		"bucket", bucket,
		"tag_count", len(tags))

	return bucket
}

// buildPrompt enumerates the taxonomy with descriptions and the contact's
// tag data.
func (p *PersonalityClassifier) buildPrompt(tags []string) string {
	var sb strings.Builder
	sb.WriteString("Assign this contact to exactly one personality bucket based on the events and lists they signed up for.\n\n")
	sb.WriteString("Buckets:\n")
	for _, b := range p.buckets {
		fmt.Fprintf(&sb, "- %s: %s\n", b.Name, b.Description)
	}
	sb.WriteString("\nContact tags:\n")
	for _, tag := range tags {
		fmt.Fprintf(&sb, "- %s\n", tag)
	}
	sb.WriteString("\nRespond with the bucket name only.")
	return sb.String()
}

// heuristicBucket is the last-resort fallback: a small fixed keyword map,
// deliberately coarser than the rule-based scorer.
func (p *PersonalityClassifier) heuristicBucket(tags []string) string {
	joined := strings.ToLower(strings.Join(tags, " "))

	switch {
	case containsAny(joined, "business", "entrepreneur", "marketing"):
		return "Entrepreneurship"
	case containsAny(joined, "health", "fitness", "nutrition"):
		return "Fitness"
	case containsAny(joined, "finance", "invest", "crypto"):
		return "Investing"
	case containsAny(joined, "wellness", "natural", "organic"):
		return "Holistic Wellness"
	default:
		return p.defaultBucket
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Close stops background goroutines.
func (p *PersonalityClassifier) Close() error {
	if p.rateLimiter != nil {
		p.rateLimiter.Close()
	}
	return nil
}
