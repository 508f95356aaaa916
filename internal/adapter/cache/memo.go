package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

// ComputeFunc produces a batch when the cache has none.
type ComputeFunc func(ctx context.Context) (domain.Batch, error)

// BatchMemo returns batches by name, computing and storing them on a miss.
type BatchMemo struct {
	store  port.BatchStore
	logger *slog.Logger
}

func NewBatchMemo(store port.BatchStore, logger *slog.Logger) *BatchMemo {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchMemo{store: store, logger: logger}
}

// LoadOrCompute returns the batch stored under key. With refresh set, or when
// nothing is stored, compute runs and its materialized result is stored.
// A failed compute leaves the store untouched.
func (m *BatchMemo) LoadOrCompute(ctx context.Context, key string, refresh bool, compute ComputeFunc) (domain.Batch, error) {
	if !refresh {
		batch, err := m.store.GetBatch(key)
		if err == nil {
			m.logger.Debug("batch cache hit", "key", key, "records", len(batch))
			return batch, nil
		}
		if !errors.Is(err, port.ErrNotFound) {
			// Unreadable entries are recomputed rather than failing the run.
			m.logger.Warn("batch cache unreadable, refetching", "key", key, "error", err)
		}
	}

	batch, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.store.PutBatch(key, batch); err != nil {
		return nil, fmt.Errorf("failed to cache batch %s: %w", key, err)
	}
	m.logger.Info("cached batch", "key", key, "records", len(batch))
	return batch, nil
}
