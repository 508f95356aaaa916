package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/selwyth/diverse-crowd/internal/adapter/cache"
	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

// DatasetUseCase loads the batch of posts for a roster, going through the
// batch cache when one is configured.
type DatasetUseCase struct {
	source port.PostSource
	memo   *cache.BatchMemo
	logger *slog.Logger
}

// NewDatasetUseCase creates a new dataset use case. memo may be nil to
// always fetch from source.
func NewDatasetUseCase(source port.PostSource, memo *cache.BatchMemo, logger *slog.Logger) *DatasetUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetUseCase{
		source: source,
		memo:   memo,
		logger: logger,
	}
}

// Load returns the batch for roster. An empty fetch is reported as
// domain.ErrEmptyBatch and never cached.
func (d *DatasetUseCase) Load(ctx context.Context, key string, roster []string, refresh bool) (domain.Batch, error) {
	fetch := func(ctx context.Context) (domain.Batch, error) {
		batch, err := d.source.Fetch(ctx, roster)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch posts: %w", err)
		}
		if len(batch) == 0 {
			return nil, domain.ErrEmptyBatch
		}
		d.logger.Info("fetched posts", "records", len(batch), "authors", len(batch.Authors()))
		return batch, nil
	}

	if d.memo == nil {
		return fetch(ctx)
	}
	return d.memo.LoadOrCompute(ctx, key, refresh, fetch)
}
