// Package model defines the core domain types shared across the application.
package model

import (
	"strings"
	"time"
)

// EngagementLevel describes how engaged a contact is with mailings.
type EngagementLevel string

// Engagement levels, highest to lowest.
const (
	EngagementHigh      EngagementLevel = "High"
	EngagementMedium    EngagementLevel = "Medium"
	EngagementLow       EngagementLevel = "Low"
	EngagementUnengaged EngagementLevel = "Unengaged"
)

// ParseEngagementLevel normalizes a free-text engagement value from an
// import file. Unknown values map to the empty level.
func ParseEngagementLevel(s string) EngagementLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return EngagementHigh
	case "medium", "med":
		return EngagementMedium
	case "low":
		return EngagementLow
	case "unengaged", "none":
		return EngagementUnengaged
	default:
		return ""
	}
}

// Contact represents a single contact record. Email is the canonical
// identifier: dedup and merge key imports by exact (case-sensitive) email.
type Contact struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Email         string
	Name          string
	Company       string
	MainBucket    string
	Engagement    EngagementLevel
	Tags          []string
	SummitHistory []string
	ID            int64
}

// Merge folds an incoming record for the same email into c.
//
// Scalar fields (Name, Company, Engagement) take the incoming value only
// when it is non-empty, so repeated imports never erase known data.
// MainBucket is last-wins unconditionally. List fields union as sets,
// preserving first-seen order.
func (c *Contact) Merge(in Contact) {
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Company != "" {
		c.Company = in.Company
	}
	if in.Engagement != "" {
		c.Engagement = in.Engagement
	}
	c.MainBucket = in.MainBucket
	c.Tags = unionStrings(c.Tags, in.Tags)
	c.SummitHistory = unionStrings(c.SummitHistory, in.SummitHistory)
}

// LowerTags returns the contact's tags lower-cased, ready for keyword
// scoring. Duplicates are preserved; the scorer is insensitive to them.
func (c *Contact) LowerTags() []string {
	lowered := make([]string, len(c.Tags))
	for i, tag := range c.Tags {
		lowered[i] = strings.ToLower(tag)
	}
	return lowered
}

func unionStrings(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, lists := range [][]string{existing, incoming} {
		for _, v := range lists {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
