package rules

import (
	"sort"
	"strings"
)

// ScoreAndSelect scores every candidate bucket against a contact's tags and
// resolves to a single winner.
//
// A bucket's score is the number of its keywords that appear as a
// substring of any tag. Tags must already be lower-cased by the caller;
// keywords are lower-cased reference data. A single tag can credit several
// buckets at once, which is intentional.
//
// When no keyword anywhere matches any tag, defaultBucket is returned.
// Ties at the max score resolve through tieBreakPriority when supplied,
// otherwise to the lexicographically smallest tied name so the outcome
// never depends on map iteration order.
func ScoreAndSelect(tags []string, keywordsByBucket map[string][]string, candidates []string, defaultBucket string, tieBreakPriority []string) string {
	scores := make(map[string]int, len(candidates))
	totalMatches := 0

	for _, bucket := range candidates {
		score := 0
		for _, keyword := range keywordsByBucket[bucket] {
			if anyTagContains(tags, keyword) {
				score++
			}
		}
		scores[bucket] = score
		totalMatches += score
	}

	if totalMatches == 0 {
		return defaultBucket
	}

	maxScore := 0
	for _, bucket := range candidates {
		if scores[bucket] > maxScore {
			maxScore = scores[bucket]
		}
	}

	tied := make([]string, 0, len(candidates))
	for _, bucket := range candidates {
		if scores[bucket] == maxScore {
			tied = append(tied, bucket)
		}
	}

	if len(tied) == 1 {
		return tied[0]
	}

	for _, preferred := range tieBreakPriority {
		for _, bucket := range tied {
			if bucket == preferred {
				return bucket
			}
		}
	}

	sort.Strings(tied)
	return tied[0]
}

func anyTagContains(tags []string, keyword string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, keyword) {
			return true
		}
	}
	return false
}
