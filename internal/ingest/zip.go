package ingest

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mwhitford/sortinghat/internal/model"
)

// ParseZIP extracts every .csv entry from a ZIP archive and parses each
// through ParseCSV. Records from all entries are concatenated in archive
// order; callers run the result through Merge. Non-CSV entries are
// skipped, and an archive containing no CSVs is an error.
func ParseZIP(path string) ([]model.Contact, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = archive.Close() }()

	var contacts []model.Contact
	csvCount := 0

	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name), ".csv") {
			slog.Debug("skipping non-CSV archive entry", "name", entry.Name)
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
		}

		parsed, err := ParseCSV(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name, err)
		}

		slog.Info("parsed archive entry", "name", entry.Name, "records", len(parsed))
		contacts = append(contacts, parsed...)
		csvCount++
	}

	if csvCount == 0 {
		return nil, fmt.Errorf("archive contains no CSV files")
	}

	return contacts, nil
}
