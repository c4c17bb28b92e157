// Package ingest parses contact import files and merges duplicate records.
package ingest

import (
	"github.com/mwhitford/sortinghat/internal/model"
)

// Merge deduplicates parsed records by exact email match and folds
// duplicates together. The first record for an email seeds the merged
// value; later records merge per model.Contact.Merge: list fields union
// as sets, scalar fields keep the last non-empty value, and the main
// bucket is last-wins unconditionally.
//
// Returned order follows first appearance in the input, so repeated
// imports of the same file produce identical output.
func Merge(records []model.Contact) []model.Contact {
	byEmail := make(map[string]*model.Contact, len(records))
	order := make([]string, 0, len(records))

	for _, record := range records {
		if record.Email == "" {
			continue
		}

		existing, ok := byEmail[record.Email]
		if !ok {
			seeded := record
			// Seed pass runs through Merge too so the seed's own tag list
			// is deduplicated.
			seeded.Tags = nil
			seeded.SummitHistory = nil
			seeded.Merge(record)
			byEmail[record.Email] = &seeded
			order = append(order, record.Email)
			continue
		}

		existing.Merge(record)
	}

	merged := make([]model.Contact, 0, len(order))
	for _, email := range order {
		merged = append(merged, *byEmail[email])
	}
	return merged
}
