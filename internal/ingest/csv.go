package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mwhitford/sortinghat/internal/model"
)

// listSeparator splits multi-valued CSV cells (tags, summit history).
const listSeparator = ";"

// ParseCSV reads contact records from a CSV stream. The first row is a
// header; columns are matched by name, case-insensitively, and unknown
// columns are ignored. Only email is required. Rows without an email are
// skipped rather than failing the whole file.
func ParseCSV(r io.Reader) ([]model.Contact, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := mapColumns(header)
	if _, ok := columns["email"]; !ok {
		return nil, fmt.Errorf("CSV header has no email column")
	}

	var contacts []model.Contact
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		contact := recordToContact(record, columns)
		if contact.Email == "" {
			continue
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

// mapColumns resolves header names to field indexes, accepting the
// aliases seen across export formats.
func mapColumns(header []string) map[string]int {
	aliases := map[string]string{
		"email":            "email",
		"email address":    "email",
		"name":             "name",
		"full name":        "name",
		"company":          "company",
		"organization":     "company",
		"tags":             "tags",
		"tag":              "tags",
		"lists":            "tags",
		"summits":          "summits",
		"summit history":   "summits",
		"summit_history":   "summits",
		"engagement":       "engagement",
		"engagement level": "engagement",
		"bucket":           "bucket",
		"main bucket":      "bucket",
		"main_bucket":      "bucket",
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := aliases[key]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}
	return columns
}

func recordToContact(record []string, columns map[string]int) model.Contact {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	return model.Contact{
		Email:         field("email"),
		Name:          field("name"),
		Company:       field("company"),
		Tags:          splitList(field("tags")),
		SummitHistory: splitList(field("summits")),
		Engagement:    model.ParseEngagementLevel(field("engagement")),
		MainBucket:    field("bucket"),
	}
}

func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
