package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitford/sortinghat/internal/cli"
	"github.com/mwhitford/sortinghat/internal/model"
)

func bucketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List bucket taxonomies with contact counts",
		RunE:  runBuckets,
	}
}

func runBuckets(cmd *cobra.Command, _ []string) error {
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

	sections := []struct {
		title    string
		taxonomy model.Taxonomy
	}{
		{"Main Buckets", model.TaxonomyMain},
		{"Personality Buckets", model.TaxonomyPersonality},
	}

	for _, section := range sections {
		buckets, bucketsErr := store.GetBuckets(ctx, section.taxonomy)
		if bucketsErr != nil {
			return fmt.Errorf("failed to load %s taxonomy: %w", section.taxonomy, bucketsErr)
		}

		var sb strings.Builder
		for _, bucket := range buckets {
			count := 0
			if section.taxonomy == model.TaxonomyMain {
				contacts, countErr := store.GetContactsByBucket(ctx, bucket.Name)
				if countErr != nil {
					return fmt.Errorf("failed to count bucket %s: %w", bucket.Name, countErr)
				}
				count = len(contacts)
			} else {
				var countErr error
				count, countErr = store.CountAssociationsByBucket(ctx, bucket.ID)
				if countErr != nil {
					return fmt.Errorf("failed to count bucket %s: %w", bucket.Name, countErr)
				}
			}

			name := bucket.Name
			if bucket.Terminal {
				name += " (terminal)"
			}
			fmt.Fprintf(&sb, "%-28s %d\n", name, count)
		}

		fmt.Println(cli.RenderBox(section.title, strings.TrimRight(sb.String(), "\n")))
	}

	return nil
}
