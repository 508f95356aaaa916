package cli

import (
	"fmt"

	"github.com/selwyth/diverse-crowd/config"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train word vectors on the cached posts",
	Long: `Train word vectors on the posts of the cache name and store them next to
the posts. 'crowd similar' reuses the stored vectors only while both the posts
and the embedding settings are unchanged; anything else retrains.

Examples:
  crowd train
  crowd train --refresh         # Refetch posts and retrain`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()

	if cfg.Embedding.Mode != config.ModeTrained {
		return fmt.Errorf("embedding mode is %q; training needs mode %q", cfg.Embedding.Mode, config.ModeTrained)
	}

	st, err := openStores(cfg, dir)
	if err != nil {
		return err
	}
	defer st.Close()

	dataset, err := newDataset(cfg, dir, st)
	if err != nil {
		return err
	}
	batch, err := dataset.Load(cmd.Context(), cfg.Cache.Name, cfg.Roster, refresh)
	if err != nil {
		return err
	}

	fmt.Printf("Training on %d posts...\n", len(batch))

	result, err := newPipeline(cfg).Build(cmd.Context(), batch, newProvider(cfg, dir, st))
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Printf("\nTraining complete:\n")
	fmt.Printf("  Posts:       %d\n", result.Records)
	fmt.Printf("  Authors:     %d\n", result.Authors)
	fmt.Printf("  Vocabulary:  %d\n", result.Vocabulary)
	fmt.Printf("  Dimension:   %d\n", result.Dimension)
	fmt.Printf("  Elapsed:     %s\n", formatDuration(result.Elapsed))
	if len(result.Undefined) > 0 {
		fmt.Printf("\nAuthors without known words (excluded from rankings):\n")
		for _, a := range result.Undefined {
			fmt.Printf("  - %s\n", a)
		}
	}
	return nil
}
