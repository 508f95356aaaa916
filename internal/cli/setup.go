package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/selwyth/diverse-crowd/config"
	"github.com/selwyth/diverse-crowd/internal/adapter/analyzer"
	"github.com/selwyth/diverse-crowd/internal/adapter/cache"
	"github.com/selwyth/diverse-crowd/internal/adapter/embedding"
	"github.com/selwyth/diverse-crowd/internal/adapter/fs"
	"github.com/selwyth/diverse-crowd/internal/adapter/memstore"
	"github.com/selwyth/diverse-crowd/internal/adapter/ranker"
	"github.com/selwyth/diverse-crowd/internal/adapter/source"
	"github.com/selwyth/diverse-crowd/internal/adapter/store"
	"github.com/selwyth/diverse-crowd/internal/port"
	"github.com/selwyth/diverse-crowd/internal/usecase"
)

// stores bundles the batch and space stores for one command run.
type stores struct {
	batches port.BatchStore
	spaces  port.SpaceStore
	bolt    *store.BoltStore // nil when caching is disabled
}

func (s *stores) Close() error {
	return s.spaces.Close()
}

// openStores opens the bbolt cache, or an in-memory store when caching is off.
func openStores(cfg *config.Config, dir string) (*stores, error) {
	if !cfg.Cache.Enabled {
		mem := memstore.NewMemoryStore()
		return &stores{batches: mem, spaces: mem}, nil
	}

	if err := config.EnsureCacheDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .crowd directory: %w", err)
	}

	st, err := store.NewBoltStore(config.CacheDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	result, err := st.Prepare()
	if err != nil {
		st.Close()
		return nil, err
	}
	if result.NeedsRebuild {
		fmt.Printf("Cache cleared: %s\n", result.Reason)
	} else if result.NeedsMigration {
		log.Debug("cache schema migrated", "reason", result.Reason)
	}

	return &stores{batches: st, spaces: st, bolt: st}, nil
}

// newSource builds the post source selected in config.
func newSource(cfg *config.Config, dir string) (port.PostSource, error) {
	switch cfg.Source.Type {
	case config.SourceTwitter:
		tw := cfg.Source.Twitter
		src, err := source.NewTwitterSourceFromEnv(tw.BearerTokenEnv, source.TwitterConfig{
			BaseURL:           tw.BaseURL,
			MaxResults:        tw.MaxResults,
			RequestsPerSecond: tw.RequestsPerSecond,
			Concurrency:       tw.Concurrency,
			Timeout:           tw.Timeout(),
		}, log)
		if err != nil {
			return nil, err
		}
		src.OnProgress(progressCallback("Fetching"))
		return src, nil
	case config.SourceFiles:
		root := cfg.Source.Files.Dir
		if !filepath.IsAbs(root) {
			root = filepath.Join(dir, root)
		}
		walker := fs.NewWalker(cfg.Source.Files.Includes, cfg.Source.Files.Excludes)
		return source.NewFileSource(root, walker, log), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}

// newDataset wires the source through the batch cache.
func newDataset(cfg *config.Config, dir string, st *stores) (*usecase.DatasetUseCase, error) {
	src, err := newSource(cfg, dir)
	if err != nil {
		return nil, err
	}
	return usecase.NewDatasetUseCase(src, cache.NewBatchMemo(st.batches, log), log), nil
}

// newProvider builds the embedding provider for the configured mode.
// Trained spaces are reused from the cache while the training config is unchanged.
func newProvider(cfg *config.Config, dir string, st *stores) port.EmbeddingProvider {
	e := cfg.Embedding
	if e.Mode == config.ModePretrained {
		return embedding.NewPretrainedLoader(e.Pretrained, config.VectorsDir(dir), e.Catalog, e.DownloadTimeout(), log)
	}

	trainer := embedding.NewTrainer(cfg.Cache.Name, embedding.TrainerConfig{
		Dimension: e.Dimension,
		Window:    e.Window,
		MinCount:  e.MinCount,
		Nonzero:   e.Nonzero,
		Seed:      e.Seed,
	}, log)
	trainer.OnProgress(progressCallback("Training"))

	return cache.NewSpaceProvider(trainer, st.spaces, cfg.Cache.Name, store.ComputeConfigHash(cfg), refresh, log)
}

// newPipeline wires normalizer, aggregator and ranker.
func newPipeline(cfg *config.Config) *usecase.Pipeline {
	normalizer := analyzer.NewNormalizer()
	aggregator := usecase.NewAggregator(normalizer, cfg.Aggregate.Workers, log)
	return usecase.NewPipeline(normalizer, aggregator, ranker.NewEuclideanRanker(), log)
}

// progressCallback returns a callback drawing a progress bar, created once the
// total is known.
func progressCallback(description string) func(done, total int) {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", description, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
