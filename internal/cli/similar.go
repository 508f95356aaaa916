package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/selwyth/diverse-crowd/config"
	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/spf13/cobra"
)

var (
	similarAuthors     []string
	similarWordVectors string
	similarTopK        int
	similarJSON        bool
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Report the closest authors to each query author",
	Long: `Rank every other author by the distance between their mean word vectors.
Without --author the query authors from config are used.

Examples:
  crowd similar -a benshapiro -a mollywood
  crowd similar --word-vectors glove-twitter-25 -a pmarca --top-k 3
  crowd similar --json`,
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)
	similarCmd.Flags().StringArrayVarP(&similarAuthors, "author", "a", nil, "author to query (repeatable, default from config)")
	similarCmd.Flags().StringVar(&similarWordVectors, "word-vectors", "", "pretrained vectors: catalog name, URL or path (default: train on posts)")
	similarCmd.Flags().IntVarP(&similarTopK, "top-k", "k", 0, "number of neighbors per author (default from config, 0 = all)")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "output as JSON")
}

type similarResult struct {
	Author    string         `json:"author"`
	Neighbors domain.Ranking `json:"neighbors,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()

	if similarWordVectors != "" {
		cfg.Embedding.Mode = config.ModePretrained
		cfg.Embedding.Pretrained = similarWordVectors
	}

	queries := similarAuthors
	if len(queries) == 0 {
		queries = cfg.Query.Authors
	}
	if len(queries) == 0 {
		return fmt.Errorf("no query authors: pass --author or set query.authors")
	}
	topK := cfg.Query.TopK
	if similarTopK > 0 {
		topK = similarTopK
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

	pipeline := newPipeline(cfg)
	if _, err := pipeline.Build(cmd.Context(), batch, newProvider(cfg, dir, st)); err != nil {
		return err
	}

	results := make([]similarResult, 0, len(queries))
	for _, author := range queries {
		ranking, err := pipeline.SimilarTo(author)
		if err != nil {
			if !errors.Is(err, domain.ErrUnknownAuthor) {
				return err
			}
			results = append(results, similarResult{Author: author, Error: err.Error()})
			continue
		}
		results = append(results, similarResult{Author: author, Neighbors: ranking.Top(topK)})
	}

	if similarJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for i, r := range results {
		if i > 0 {
			fmt.Println()
		}
		if r.Error != "" {
			fmt.Printf("%s: no known words to compare\n", r.Author)
			continue
		}
		fmt.Printf("Closest users to %s:\n", r.Author)
		if len(r.Neighbors) == 0 {
			fmt.Println("  (no other authors to compare)")
		}
		for rank, n := range r.Neighbors {
			fmt.Printf("  %2d. %-16s %.4f\n", rank+1, n.Author, n.Distance)
		}
	}
	return nil
}
