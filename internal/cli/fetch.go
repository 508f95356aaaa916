package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	fetchList   bool
	fetchForget bool
	fetchJSON   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and cache posts for the roster",
	Long: `Fetch recent posts for every author in the roster and store them in
.crowd/cache.db under the cache name. Later commands reuse the cached posts
until --refresh is given.

Examples:
  crowd fetch                   # Fetch (or reuse) the default cache
  crowd fetch --name weekly     # Keep a separate named snapshot
  crowd fetch --refresh         # Refetch even when cached
  crowd fetch --list            # Show cached snapshots
  crowd fetch --forget --name weekly  # Drop a snapshot and its trained vectors`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchList, "list", false, "list cached snapshots instead of fetching")
	fetchCmd.Flags().BoolVar(&fetchForget, "forget", false, "delete the cached snapshot and its trained vectors instead of fetching")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "output as JSON")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()

	st, err := openStores(cfg, dir)
	if err != nil {
		return err
	}
	defer st.Close()

	if fetchList {
		if st.bolt == nil {
			return fmt.Errorf("cache is disabled in config")
		}
		infos, err := st.bolt.ListBatches()
		if err != nil {
			return fmt.Errorf("failed to list cached snapshots: %w", err)
		}
		if fetchJSON {
			output, _ := json.MarshalIndent(infos, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		if len(infos) == 0 {
			fmt.Println("No cached snapshots.")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("  %-16s %5d posts  %3d authors  fetched %s\n",
				info.Name, info.Records, info.Authors, info.FetchedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	if fetchForget {
		if err := st.batches.DeleteBatch(cfg.Cache.Name); err != nil {
			return fmt.Errorf("failed to delete cached posts: %w", err)
		}
		if err := st.spaces.DeleteSpace(cfg.Cache.Name); err != nil {
			return fmt.Errorf("failed to delete trained vectors: %w", err)
		}
		fmt.Printf("Forgot %q\n", cfg.Cache.Name)
		return nil
	}

	dataset, err := newDataset(cfg, dir, st)
	if err != nil {
		return err
	}

	batch, err := dataset.Load(cmd.Context(), cfg.Cache.Name, cfg.Roster, refresh)
	if err != nil {
		return err
	}

	perAuthor := make(map[string]int)
	for _, r := range batch {
		perAuthor[r.Author]++
	}
	authors := batch.Authors()

	if fetchJSON {
		type authorCount struct {
			Author string `json:"author"`
			Posts  int    `json:"posts"`
		}
		counts := make([]authorCount, len(authors))
		for i, a := range authors {
			counts[i] = authorCount{Author: a, Posts: perAuthor[a]}
		}
		output, _ := json.MarshalIndent(counts, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Posts for %q:\n", cfg.Cache.Name)
	for _, a := range authors {
		fmt.Printf("  %-16s %d\n", a, perAuthor[a])
	}
	fmt.Printf("\nTotal: %d posts from %d authors\n", len(batch), len(authors))
	return nil
}
