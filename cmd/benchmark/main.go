package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/selwyth/diverse-crowd/config"
	"github.com/selwyth/diverse-crowd/internal/adapter/analyzer"
	"github.com/selwyth/diverse-crowd/internal/adapter/embedding"
	"github.com/selwyth/diverse-crowd/internal/adapter/ranker"
	"github.com/selwyth/diverse-crowd/internal/adapter/store"
	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
	"github.com/selwyth/diverse-crowd/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding .crowd/cache.db")
	name := flag.String("name", "", "Cached snapshot to use (default from config)")
	vectors := flag.String("word-vectors", "", "Pretrained vectors to compare against (catalog name, URL or path)")
	topK := flag.Int("k", 3, "Neighbors compared per author")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *name != "" {
		cfg.Cache.Name = *name
	}

	st, err := store.NewBoltStore(config.CacheDBPath(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if _, err := st.Prepare(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing cache: %v\n", err)
		os.Exit(1)
	}

	batch, err := st.GetBatch(cfg.Cache.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No cached posts for %q - run 'crowd fetch' first: %v\n", cfg.Cache.Name, err)
		os.Exit(1)
	}

	fmt.Println("EMBEDDING COMPARISON BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Snapshot: %s (%d posts, %d authors)\n\n", cfg.Cache.Name, len(batch), len(batch.Authors()))

	ctx := context.Background()
	e := cfg.Embedding
	trainer := embedding.NewTrainer(cfg.Cache.Name, embedding.TrainerConfig{
		Dimension: e.Dimension,
		Window:    e.Window,
		MinCount:  e.MinCount,
		Nonzero:   e.Nonzero,
		Seed:      e.Seed,
	}, nil)

	trained, err := run(ctx, cfg, batch, trainer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Trained run failed: %v\n", err)
		os.Exit(1)
	}
	report("trained", trained)

	if *vectors == "" {
		return
	}

	loader := embedding.NewPretrainedLoader(*vectors, config.VectorsDir(*dir), e.Catalog, e.DownloadTimeout(), nil)
	pretrained, err := run(ctx, cfg, batch, loader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pretrained run failed: %v\n", err)
		os.Exit(1)
	}
	report(*vectors, pretrained)

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("AGREEMENT (top-%d overlap per author):\n", *topK)
	var total float64
	var compared int
	for _, author := range batch.Authors() {
		a, errA := trained.pipeline.SimilarTo(author)
		b, errB := pretrained.pipeline.SimilarTo(author)
		if errA != nil || errB != nil {
			fmt.Printf("  %-16s skipped (undefined in one space)\n", author)
			continue
		}
		overlap := overlapAt(a, b, *topK)
		total += overlap
		compared++
		fmt.Printf("  %-16s %.2f  trained=%s  pretrained=%s\n", author, overlap, first(a), first(b))
	}
	if compared > 0 {
		fmt.Printf("\n  Mean overlap: %.3f over %d authors\n", total/float64(compared), compared)
	}
}

type runResult struct {
	pipeline *usecase.Pipeline
	build    *usecase.BuildResult
	ranking  time.Duration
	ranked   int
}

func run(ctx context.Context, cfg *config.Config, batch domain.Batch, provider port.EmbeddingProvider) (*runResult, error) {
	normalizer := analyzer.NewNormalizer()
	p := usecase.NewPipeline(normalizer, usecase.NewAggregator(normalizer, cfg.Aggregate.Workers, nil), ranker.NewEuclideanRanker(), nil)

	build, err := p.Build(ctx, batch, provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ranked := 0
	for _, author := range batch.Authors() {
		if _, err := p.SimilarTo(author); err != nil {
			if errors.Is(err, domain.ErrUnknownAuthor) {
				continue
			}
			return nil, err
		}
		ranked++
	}
	return &runResult{pipeline: p, build: build, ranking: time.Since(start), ranked: ranked}, nil
}

func report(label string, r *runResult) {
	fmt.Printf("[%s]\n", label)
	fmt.Printf("  Vocabulary:  %d tokens, %d dimensions\n", r.build.Vocabulary, r.build.Dimension)
	fmt.Printf("  Build:       %s\n", r.build.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Rank all:    %s (%d authors ranked)\n", r.ranking.Round(time.Microsecond), r.ranked)
	if len(r.build.Undefined) > 0 {
		fmt.Printf("  Undefined:   %s\n", strings.Join(r.build.Undefined, ", "))
	}
	fmt.Println()
}

// overlapAt returns the fraction of the first k neighbors shared by a and b.
func overlapAt(a, b domain.Ranking, k int) float64 {
	a, b = a.Top(k), b.Top(k)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	seen := make(map[string]bool, len(a))
	for _, x := range a {
		seen[x.Author] = true
	}
	shared := 0
	for _, y := range b {
		if seen[y.Author] {
			shared++
		}
	}
	return float64(shared) / float64(n)
}

func first(r domain.Ranking) string {
	if len(r) == 0 {
		return "-"
	}
	return r[0].Author
}
