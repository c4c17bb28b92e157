package rules

import (
	"testing"

	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierNoTags(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result := c.Classify(model.Contact{ID: 1})

	assert.Equal(t, DefaultMainBucket, result.MainBucket)
	assert.Equal(t, DefaultPersonalityBucket, result.PersonalityBucket)
}

func TestClassifierHealthTags(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result := c.Classify(model.Contact{
		ID:   2,
		Tags: []string{"Health Summit 2024", "Nutrition Masterclass"},
	})

	assert.Equal(t, "Health", result.MainBucket)
}

func TestClassifierCaseInsensitive(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	upper := c.Classify(model.Contact{ID: 3, Tags: []string{"SURVIVAL BOOTCAMP"}})
	lower := c.Classify(model.Contact{ID: 3, Tags: []string{"survival bootcamp"}})

	assert.Equal(t, "Survivalist", upper.MainBucket)
	assert.Equal(t, lower.MainBucket, upper.MainBucket)
}

func TestClassifierTieBreakPriority(t *testing.T) {
	cfg := Config{
		MainTaxonomy: []model.Bucket{
			{Name: "Business Operations", Keywords: []string{"summit"}},
			{Name: "Health", Keywords: []string{"summit"}},
		},
		PersonalityTaxonomy: DefaultPersonalityTaxonomy(),
		MainTieBreak:        []string{"Health", "Business Operations"},
		DefaultMain:         DefaultMainBucket,
		DefaultPersonality:  DefaultPersonalityBucket,
	}
	c := NewClassifier(cfg)

	result := c.Classify(model.Contact{ID: 4, Tags: []string{"Growth Summit"}})

	assert.Equal(t, "Health", result.MainBucket)
}

func TestClassifierZeroMatchFallsToDefault(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result := c.Classify(model.Contact{ID: 5, Tags: []string{"quantum basket weaving"}})

	assert.Equal(t, DefaultMainBucket, result.MainBucket)
	assert.Equal(t, DefaultPersonalityBucket, result.PersonalityBucket)
}

func TestClassifierAlwaysResolves(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	personality := c.PersonalityBuckets()
	require.Len(t, personality, 10)

	inputs := [][]string{
		nil,
		{},
		{"x"},
		{"health business survival"},
		{"homestead chicken coop", "solar panel install"},
	}
	for _, tags := range inputs {
		result := c.Classify(model.Contact{Tags: tags})
		assert.NotEmpty(t, result.MainBucket)
		assert.NotEmpty(t, result.PersonalityBucket)
		assert.NotEqual(t, CannotPlace, result.MainBucket)
	}
}

func TestDefaultTaxonomyShape(t *testing.T) {
	main := DefaultMainTaxonomy()
	personality := DefaultPersonalityTaxonomy()

	assert.Len(t, AssignableNames(main), 3)
	assert.Len(t, AssignableNames(personality), 10)

	// Both taxonomies carry the terminal fallback entry.
	assert.Equal(t, CannotPlace, main[len(main)-1].Name)
	assert.True(t, main[len(main)-1].Terminal)
	assert.Equal(t, CannotPlace, personality[len(personality)-1].Name)
	assert.True(t, personality[len(personality)-1].Terminal)

	for name, kws := range KeywordsByBucket(append(main, personality...)) {
		assert.NotEmpty(t, kws, "bucket %s has no keywords", name)
	}
}
