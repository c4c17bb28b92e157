// Package rules implements deterministic keyword-based bucket classification.
package rules

import "github.com/mwhitford/sortinghat/internal/model"

// CannotPlace is the terminal fallback bucket present in both taxonomies.
// It is reference data only: the classifier routes tag-less and zero-match
// contacts to the configured defaults instead.
const CannotPlace = "Cannot Place"

// Default buckets for contacts whose tags match nothing. These are the
// busiest buckets by volume; routing unmatched contacts here trades
// precision for guaranteed coverage.
const (
	DefaultMainBucket        = "Business Operations"
	DefaultPersonalityBucket = "Entrepreneurship"
)

// DefaultMainTaxonomy returns the three assignable main buckets plus the
// terminal fallback, with their scoring keywords.
func DefaultMainTaxonomy() []model.Bucket {
	return []model.Bucket{
		{
			Name:        "Business Operations",
			Taxonomy:    model.TaxonomyMain,
			Description: "Entrepreneurs, marketers, and operators building or running a business.",
			Keywords: []string{
				"business", "entrepreneur", "marketing", "startup", "sales",
				"ecommerce", "agency", "funnel", "finance", "invest", "money",
			},
		},
		{
			Name:        "Health",
			Taxonomy:    model.TaxonomyMain,
			Description: "Contacts focused on health, fitness, and wellness topics.",
			Keywords: []string{
				"health", "wellness", "fitness", "nutrition", "diet", "yoga",
				"keto", "weight", "detox", "healing", "energy",
			},
		},
		{
			Name:        "Survivalist",
			Taxonomy:    model.TaxonomyMain,
			Description: "Preparedness, homesteading, and self-reliance audiences.",
			Keywords: []string{
				"survival", "prepper", "preparedness", "homestead", "off-grid",
				"self-defense", "tactical", "emergency", "bushcraft", "food storage",
			},
		},
		{
			Name:     CannotPlace,
			Taxonomy: model.TaxonomyMain,
			Terminal: true,
		},
	}
}

// DefaultPersonalityTaxonomy returns the ten assignable personality buckets
// plus the terminal fallback. Descriptions feed the AI prompt verbatim.
func DefaultPersonalityTaxonomy() []model.Bucket {
	return []model.Bucket{
		{
			Name:        "Entrepreneurship",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Starting and growing businesses, startups, and side hustles.",
			Keywords:    []string{"entrepreneur", "business", "startup", "founder", "side hustle"},
		},
		{
			Name:        "Marketing & Sales",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Digital marketing, copywriting, funnels, and selling online.",
			Keywords:    []string{"marketing", "sales", "copywriting", "funnel", "traffic", "ads"},
		},
		{
			Name:        "Investing",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Stocks, real estate, crypto, and personal wealth building.",
			Keywords:    []string{"invest", "finance", "crypto", "stocks", "wealth", "real estate"},
		},
		{
			Name:        "Fitness",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Exercise, strength training, and physical performance.",
			Keywords:    []string{"fitness", "workout", "exercise", "strength", "muscle", "training"},
		},
		{
			Name:        "Nutrition",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Diet, food quality, supplements, and healthy eating.",
			Keywords:    []string{"nutrition", "diet", "keto", "recipe", "supplement", "superfood"},
		},
		{
			Name:        "Holistic Wellness",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Natural remedies, organic living, and whole-body wellness.",
			Keywords:    []string{"wellness", "natural", "organic", "holistic", "remedy", "essential oil"},
		},
		{
			Name:        "Biohacking",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Optimizing sleep, energy, longevity, and cognitive performance.",
			Keywords:    []string{"biohacking", "longevity", "sleep", "fasting", "nootropic", "anti-aging"},
		},
		{
			Name:        "Preparedness",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Emergency readiness, survival skills, and self-defense.",
			Keywords:    []string{"survival", "prepper", "preparedness", "emergency", "tactical", "self-defense"},
		},
		{
			Name:        "Homesteading",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Gardening, raising animals, and producing your own food.",
			Keywords:    []string{"homestead", "garden", "chicken", "canning", "permaculture", "livestock"},
		},
		{
			Name:        "Off-Grid Living",
			Taxonomy:    model.TaxonomyPersonality,
			Description: "Solar power, water independence, and living off the grid.",
			Keywords:    []string{"off-grid", "solar", "off grid", "well water", "cabin", "independence"},
		},
		{
			Name:     CannotPlace,
			Taxonomy: model.TaxonomyPersonality,
			Terminal: true,
		},
	}
}

// AssignableNames returns the non-terminal bucket names of a taxonomy, in
// declaration order.
func AssignableNames(buckets []model.Bucket) []string {
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if b.Terminal {
			continue
		}
		names = append(names, b.Name)
	}
	return names
}

// KeywordsByBucket builds the scorer's keyword map from a taxonomy,
// skipping terminal entries.
func KeywordsByBucket(buckets []model.Bucket) map[string][]string {
	m := make(map[string][]string, len(buckets))
	for _, b := range buckets {
		if b.Terminal {
			continue
		}
		m[b.Name] = b.Keywords
	}
	return m
}
