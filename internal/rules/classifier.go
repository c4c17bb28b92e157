package rules

import (
	"github.com/mwhitford/sortinghat/internal/model"
)

// Classifier assigns a main bucket and a personality bucket to a contact
// using keyword scoring over both taxonomies. It is a pure, total
// function: every contact resolves to some pair of buckets.
type Classifier struct {
	mainKeywords        map[string][]string
	personalityKeywords map[string][]string
	mainBuckets         []string
	personalityBuckets  []string
	mainTieBreak        []string
	personalityTieBreak []string
	defaultMain         string
	defaultPersonality  string
}

// Config holds configuration options for the rule-based classifier.
type Config struct {
	MainTaxonomy        []model.Bucket
	PersonalityTaxonomy []model.Bucket
	MainTieBreak        []string
	PersonalityTieBreak []string
	DefaultMain         string
	DefaultPersonality  string
}

// DefaultConfig returns a config backed by the built-in taxonomies.
func DefaultConfig() Config {
	return Config{
		MainTaxonomy:        DefaultMainTaxonomy(),
		PersonalityTaxonomy: DefaultPersonalityTaxonomy(),
		DefaultMain:         DefaultMainBucket,
		DefaultPersonality:  DefaultPersonalityBucket,
	}
}

// NewClassifier creates a classifier from explicit taxonomy configuration.
// Taxonomies are loaded once and never mutated afterwards.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		mainBuckets:         AssignableNames(cfg.MainTaxonomy),
		personalityBuckets:  AssignableNames(cfg.PersonalityTaxonomy),
		mainKeywords:        KeywordsByBucket(cfg.MainTaxonomy),
		personalityKeywords: KeywordsByBucket(cfg.PersonalityTaxonomy),
		mainTieBreak:        cfg.MainTieBreak,
		personalityTieBreak: cfg.PersonalityTieBreak,
		defaultMain:         cfg.DefaultMain,
		defaultPersonality:  cfg.DefaultPersonality,
	}
}

// Classify resolves both bucket dimensions for a contact. Contacts without
// tags go straight to the configured defaults.
func (c *Classifier) Classify(contact model.Contact) model.Result {
	if len(contact.Tags) == 0 {
		return model.Result{
			ContactID:         contact.ID,
			MainBucket:        c.defaultMain,
			PersonalityBucket: c.defaultPersonality,
		}
	}

	tags := contact.LowerTags()

	return model.Result{
		ContactID:         contact.ID,
		MainBucket:        ScoreAndSelect(tags, c.mainKeywords, c.mainBuckets, c.defaultMain, c.mainTieBreak),
		PersonalityBucket: ScoreAndSelect(tags, c.personalityKeywords, c.personalityBuckets, c.defaultPersonality, c.personalityTieBreak),
	}
}

// ClassifyPersonality scores only the personality dimension for an
// already-lowered tag set. Used as the validation fallback path.
func (c *Classifier) ClassifyPersonality(loweredTags []string) string {
	if len(loweredTags) == 0 {
		return c.defaultPersonality
	}
	return ScoreAndSelect(loweredTags, c.personalityKeywords, c.personalityBuckets, c.defaultPersonality, c.personalityTieBreak)
}

// PersonalityBuckets returns the assignable personality bucket names.
func (c *Classifier) PersonalityBuckets() []string {
	out := make([]string, len(c.personalityBuckets))
	copy(out, c.personalityBuckets)
	return out
}

// DefaultPersonality returns the configured personality default bucket.
func (c *Classifier) DefaultPersonality() string {
	return c.defaultPersonality
}
