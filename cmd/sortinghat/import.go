package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitford/sortinghat/internal/cli"
	"github.com/mwhitford/sortinghat/internal/ingest"
	"github.com/mwhitford/sortinghat/internal/model"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [files...]",
		Short: "Import contact exports",
		Long: `Import contacts from CSV files or ZIP archives of CSV files.

Contacts are deduplicated by email address. Re-importing a file is safe:
existing contacts gain new tags and summit history without losing data.

Examples:
  sortinghat import contacts.csv
  sortinghat import export-2025.zip older-export.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	var records []model.Contact
	for _, path := range args {
		parsed, parseErr := parseImportFile(path)
		if parseErr != nil {
			return fmt.Errorf("failed to parse %s: %w", path, parseErr)
		}
		slog.Info("parsed import file", "path", path, "records", len(parsed))
		records = append(records, parsed...)
	}

	contacts := ingest.Merge(records)
	if len(contacts) == 0 {
		fmt.Println(cli.FormatWarning("No contacts found in the given files."))
		return nil
	}

	if err := store.SaveContacts(ctx, contacts); err != nil {
		return fmt.Errorf("failed to save contacts: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d contacts from %d records", len(contacts), len(records))))
	return nil
}

func parseImportFile(path string) ([]model.Contact, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return ingest.ParseZIP(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return ingest.ParseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .csv or .zip)", filepath.Ext(path))
	}
}
