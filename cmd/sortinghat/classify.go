// Package main contains the sortinghat CLI commands.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwhitford/sortinghat/internal/cli"
	"github.com/mwhitford/sortinghat/internal/common"
	"github.com/mwhitford/sortinghat/internal/engine"
	"github.com/mwhitford/sortinghat/internal/rules"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Sort contacts into buckets",
		Long: `Sort contacts into main and personality buckets by tag analysis.

This command processes ALL unclassified contacts by default. Use --limit
to cap a run, or --ai to refine the personality dimension through an LLM.

Examples:
  sortinghat classify              # Classify all unclassified contacts
  sortinghat classify --limit 500  # Classify at most 500 contacts
  sortinghat classify --ai         # Use AI for the personality dimension`,
		RunE: runClassify,
	}

	cmd.Flags().Bool("ai", false, "Refine personality buckets with an LLM")
	cmd.Flags().IntP("limit", "n", 0, "Maximum contacts to process (0 = no limit)")
	cmd.Flags().Int("batch-size", engine.DefaultBatchSize, "Contacts per batch")
	cmd.Flags().Int("parallelism", engine.DefaultParallelism, "Parallel workers per batch")
	cmd.Flags().Int64Slice("ids", nil, "Restrict the run to specific contact IDs")

	// Bind to viper (errors are rare and can be ignored in practice)
	_ = viper.BindPFlag("classification.ai", cmd.Flags().Lookup("ai"))
	_ = viper.BindPFlag("classification.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("classification.batch_size", cmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("classification.parallelism", cmd.Flags().Lookup("parallelism"))

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	useAI := viper.GetBool("classification.ai")
	limit := viper.GetInt("classification.limit")
	ids, _ := cmd.Flags().GetInt64Slice("ids")

	slog.Info("Starting contact classification")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	var refiner engine.PersonalityRefiner
	if useAI {
		classifier, llmErr := createPersonalityClassifier()
		if llmErr != nil {
			return fmt.Errorf("failed to create AI classifier: %w", llmErr)
		}
		defer func() { _ = classifier.Close() }()
		refiner = classifier
	}

	eng := engine.New(
		store,
		rules.NewClassifier(rules.DefaultConfig()),
		refiner,
		engine.Config{
			BatchSize:   viper.GetInt("classification.batch_size"),
			Parallelism: viper.GetInt("classification.parallelism"),
		},
		slog.Default(),
	)

	renderer := cli.NewProgressRenderer(os.Stderr)
	result, err := eng.Run(ctx, engine.Options{
		ContactIDs: ids,
		Limit:      limit,
		UseAI:      useAI,
		OnProgress: renderer.Callback(),
	})
	renderer.Finish()

	switch {
	case common.IsCancellation(err):
		processed := 0
		if result != nil {
			processed = result.TotalProcessed
		}
		slog.Warn("Classification interrupted", "processed", processed)
		fmt.Println(cli.FormatWarning("Interrupted. Progress saved; run classify again to continue."))
		return nil
	case errors.Is(err, common.ErrNoContacts):
		fmt.Println(cli.FormatInfo("No unclassified contacts. Nothing to do."))
		return nil
	case err != nil:
		return fmt.Errorf("classification failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classified %d contacts", result.TotalProcessed)))
	return nil
}
