package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwhitford/sortinghat/internal/rules"
	"github.com/stretchr/testify/assert"
)

type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.response, s.err
}

func newTestClassifier(t *testing.T, client Client) *PersonalityClassifier {
	t.Helper()
	p := NewPersonalityClassifier(
		client,
		rules.DefaultPersonalityTaxonomy(),
		rules.DefaultPersonalityBucket,
		Config{MaxRetries: 1, RateLimit: 10000, RetryDelay: time.Millisecond},
		nil,
	)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestClassifyPersonalityValidResponse(t *testing.T) {
	p := newTestClassifier(t, &stubClient{response: "Homesteading"})

	got := p.ClassifyPersonality(context.Background(), []string{"chicken coop workshop"})

	assert.Equal(t, "Homesteading", got)
}

func TestClassifyPersonalityStripsMarkdown(t *testing.T) {
	p := newTestClassifier(t, &stubClient{response: "```\nInvesting\n```"})

	got := p.ClassifyPersonality(context.Background(), []string{"stock picks"})

	assert.Equal(t, "Investing", got)
}

func TestClassifyPersonalityInvalidResponseFallsBack(t *testing.T) {
	p := newTestClassifier(t, &stubClient{response: "Not A Real Bucket"})

	got := p.ClassifyPersonality(context.Background(), []string{"health masterclass"})

	// Invalid taxonomy names never leak through; the heuristic takes over.
	assert.NotEqual(t, "Not A Real Bucket", got)
	assert.Equal(t, "Fitness", got)
}

func TestClassifyPersonalityTransportErrorFallsBack(t *testing.T) {
	p := newTestClassifier(t, &stubClient{err: errors.New("connection refused")})

	got := p.ClassifyPersonality(context.Background(), []string{"crypto summit"})

	assert.Equal(t, "Investing", got)
}

func TestHeuristicFallbackMapping(t *testing.T) {
	p := newTestClassifier(t, &stubClient{err: errors.New("down")})

	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"business keyword", []string{"Business Bootcamp"}, "Entrepreneurship"},
		{"fitness keyword", []string{"Fitness Challenge"}, "Fitness"},
		{"invest keyword", []string{"Investor Weekly"}, "Investing"},
		{"wellness keyword", []string{"Natural Living Expo"}, "Holistic Wellness"},
		{"no keyword falls to default", []string{"quilting circle"}, rules.DefaultPersonalityBucket},
		{"empty tags fall to default", nil, rules.DefaultPersonalityBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ClassifyPersonality(context.Background(), tt.tags))
		})
	}
}

func TestClassifyPersonalityRetriesBeforeFallback(t *testing.T) {
	client := &stubClient{response: "garbage"}
	p := NewPersonalityClassifier(
		client,
		rules.DefaultPersonalityTaxonomy(),
		rules.DefaultPersonalityBucket,
		Config{MaxRetries: 3, RateLimit: 10000, RetryDelay: time.Millisecond},
		nil,
	)
	defer func() { _ = p.Close() }()

	got := p.ClassifyPersonality(context.Background(), []string{"unknown topic"})

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, rules.DefaultPersonalityBucket, got)
}
