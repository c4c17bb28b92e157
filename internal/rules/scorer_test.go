package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreAndSelect(t *testing.T) {
	keywords := map[string][]string{
		"Business Operations": {"business", "marketing", "invest"},
		"Health":              {"health", "wellness", "nutrition"},
		"Survivalist":         {"survival", "prepper"},
	}
	candidates := []string{"Business Operations", "Health", "Survivalist"}

	tests := []struct {
		name     string
		tags     []string
		priority []string
		want     string
	}{
		{
			name: "no matches returns default",
			tags: []string{"cooking summit", "travel hacks"},
			want: "Cannot Place",
		},
		{
			name: "empty tag set returns default",
			tags: []string{},
			want: "Cannot Place",
		},
		{
			name: "unique max wins",
			tags: []string{"health masterclass", "nutrition summit"},
			want: "Health",
		},
		{
			name: "keyword matches inside longer tag",
			tags: []string{"the unhealthy truth webinar"},
			want: "Health",
		},
		{
			name: "tie resolves lexicographically without priority",
			tags: []string{"business of health"},
			want: "Business Operations",
		},
		{
			name:     "tie resolves by priority list when supplied",
			tags:     []string{"business of health"},
			priority: []string{"Health", "Business Operations"},
			want:     "Health",
		},
		{
			name:     "priority list ignored when winner is unique",
			tags:     []string{"survival skills", "prepper expo"},
			priority: []string{"Health", "Business Operations"},
			want:     "Survivalist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAndSelect(tt.tags, keywords, candidates, "Cannot Place", tt.priority)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreAndSelectMultiBucketCredit(t *testing.T) {
	// A single tag containing keywords from several buckets credits each
	// bucket independently.
	keywords := map[string][]string{
		"A": {"alpha"},
		"B": {"alpha beta"},
	}
	got := ScoreAndSelect([]string{"alpha beta gamma"}, keywords, []string{"A", "B"}, "Default", nil)
	// Both score 1; lexicographic tie-break picks A.
	assert.Equal(t, "A", got)
}

func TestScoreAndSelectOrderIndependence(t *testing.T) {
	keywords := map[string][]string{
		"Business Operations": {"business"},
		"Health":              {"health"},
	}
	candidates := []string{"Business Operations", "Health"}
	reversed := []string{"Health", "Business Operations"}

	tags := []string{"health and business"}
	first := ScoreAndSelect(tags, keywords, candidates, "Cannot Place", nil)
	second := ScoreAndSelect(tags, keywords, reversed, "Cannot Place", nil)
	assert.Equal(t, first, second)
}

func TestScoreAndSelectDuplicateTags(t *testing.T) {
	keywords := map[string][]string{
		"Health": {"health"},
		"Biz":    {"business", "marketing"},
	}
	// Duplicate tags do not inflate scores: each keyword counts once.
	got := ScoreAndSelect(
		[]string{"health summit", "health summit", "health webinar"},
		keywords,
		[]string{"Health", "Biz"},
		"Default",
		nil,
	)
	assert.Equal(t, "Health", got)
}
