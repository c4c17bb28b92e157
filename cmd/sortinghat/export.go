package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwhitford/sortinghat/internal/cli"
	"github.com/mwhitford/sortinghat/internal/emailcheck"
	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/mwhitford/sortinghat/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a bucket roster",
		Long: `Export the contacts of a bucket to CSV or a Google Sheet.

Examples:
  sortinghat export --bucket Health                      # CSV to stdout
  sortinghat export --bucket Fitness --output roster.csv
  sortinghat export --bucket Investing --format sheets
  sortinghat export --bucket Health --check-emails       # drop undeliverable addresses`,
		RunE: runExport,
	}

	cmd.Flags().StringP("bucket", "b", "", "Bucket to export (required)")
	cmd.Flags().StringP("format", "f", "csv", "Output format (csv, sheets)")
	cmd.Flags().StringP("output", "o", "", "Output file for CSV (default: stdout)")
	cmd.Flags().Bool("check-emails", false, "Validate addresses and export only deliverable ones")
	_ = cmd.MarkFlagRequired("bucket")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	bucketName, _ := cmd.Flags().GetString("bucket")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	checkEmails, _ := cmd.Flags().GetBool("check-emails")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	if _, err := store.GetBucketByName(ctx, bucketName); err != nil {
		return fmt.Errorf("unknown bucket %q: %w", bucketName, err)
	}

	contacts, err := store.GetContactsByBucket(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if len(contacts) == 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Bucket %q has no contacts.", bucketName)))
		return nil
	}

	if checkEmails {
		contacts, err = filterDeliverableContacts(ctx, contacts)
		if err != nil {
			return fmt.Errorf("email validation failed: %w", err)
		}
		slog.Info("filtered roster to deliverable addresses", "remaining", len(contacts))
	}

	switch format {
	case "csv":
		return exportCSV(contacts, output)
	case "sheets":
		return exportSheets(ctx, contacts, bucketName)
	default:
		return fmt.Errorf("unsupported format %q (expected csv or sheets)", format)
	}
}

func filterDeliverableContacts(ctx context.Context, contacts []model.Contact) ([]model.Contact, error) {
	client, err := emailcheck.NewClient(emailcheck.Config{
		BaseURL:   viper.GetString("emailcheck.base_url"),
		APIKey:    viper.GetString("emailcheck.api_key"),
		BatchSize: viper.GetInt("emailcheck.batch_size"),
	})
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(contacts))
	for _, c := range contacts {
		emails = append(emails, c.Email)
	}

	deliverable, err := client.FilterDeliverable(ctx, emails)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]struct{}, len(deliverable))
	for _, email := range deliverable {
		keep[email] = struct{}{}
	}

	filtered := make([]model.Contact, 0, len(deliverable))
	for _, c := range contacts {
		if _, ok := keep[c.Email]; ok {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func exportCSV(contacts []model.Contact, output string) error {
	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"Email", "Name", "Company", "Main Bucket", "Engagement", "Tags", "Summit History"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, c := range contacts {
		record := []string{
			c.Email,
			c.Name,
			c.Company,
			c.MainBucket,
			string(c.Engagement),
			strings.Join(c.Tags, "; "),
			strings.Join(c.SummitHistory, "; "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write contact %s: %w", c.Email, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if output != "" {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d contacts to %s", len(contacts), output)))
	}
	return nil
}

func exportSheets(ctx context.Context, contacts []model.Contact, bucketName string) error {
	config := sheets.DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, config, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	byMainBucket := make(map[string]int)
	for _, c := range contacts {
		if c.MainBucket != "" {
			byMainBucket[c.MainBucket]++
		}
	}

	summary := &sheets.RosterSummary{
		Title:        fmt.Sprintf("%s Roster", bucketName),
		GeneratedAt:  time.Now(),
		ByMainBucket: byMainBucket,
	}

	if err := writer.Write(ctx, contacts, summary); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d contacts to Google Sheets", len(contacts))))
	return nil
}
