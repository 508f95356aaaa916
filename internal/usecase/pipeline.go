package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

// Pipeline owns a batch, its embedding space and the derived author
// centroids, and answers similarity queries against them.
type Pipeline struct {
	normalizer port.Normalizer
	aggregator *Aggregator
	ranker     port.Ranker
	logger     *slog.Logger

	batch domain.Batch
	space port.EmbeddingSpace

	// Centroids are valid only for the generation they were computed in.
	generation    uint64
	centroids     domain.AuthorCentroids
	centroidsFrom uint64
}

// NewPipeline creates a new pipeline.
func NewPipeline(
	normalizer port.Normalizer,
	aggregator *Aggregator,
	ranker port.Ranker,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: normalizer,
		aggregator: aggregator,
		ranker:     ranker,
		logger:     logger,
	}
}

// BuildResult summarizes a build.
type BuildResult struct {
	Records    int
	Authors    int
	Undefined  []string
	Vocabulary int
	Dimension  int
	Space      string
	Elapsed    time.Duration
}

// Build normalizes the batch, obtains an embedding space from provider and
// computes the author centroids once.
func (p *Pipeline) Build(ctx context.Context, batch domain.Batch, provider port.EmbeddingProvider) (*BuildResult, error) {
	if len(batch) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	start := time.Now()

	sentences := p.normalizer.NormalizeAll(batch.Texts())

	space, err := provider.Provide(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding space: %w", err)
	}

	p.batch = append(domain.Batch(nil), batch...)
	p.space = space
	p.generation++

	centroids, err := p.Centroids(ctx)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Records:    len(batch),
		Authors:    len(centroids),
		Undefined:  centroids.Undefined(),
		Vocabulary: len(space.Vocabulary()),
		Dimension:  space.Dimension(),
		Space:      space.Name(),
		Elapsed:    time.Since(start),
	}
	p.logger.Info("pipeline built",
		"records", result.Records,
		"authors", result.Authors,
		"undefined", len(result.Undefined),
		"vocabulary", result.Vocabulary,
		"dimension", result.Dimension,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}

// Centroids returns the author centroids, aggregating only when the batch or
// space changed since the last call.
func (p *Pipeline) Centroids(ctx context.Context) (domain.AuthorCentroids, error) {
	if p.space == nil {
		return nil, fmt.Errorf("pipeline not built")
	}
	if p.centroids != nil && p.centroidsFrom == p.generation {
		return p.centroids, nil
	}

	centroids, err := p.aggregator.Aggregate(ctx, p.batch, p.space)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate centroids: %w", err)
	}
	p.centroids = centroids
	p.centroidsFrom = p.generation
	return centroids, nil
}

// SimilarTo ranks every other author by distance to author's centroid.
// Only the distance pass runs per call; centroids come from the build.
func (p *Pipeline) SimilarTo(author string) (domain.Ranking, error) {
	if p.centroids == nil || p.centroidsFrom != p.generation {
		return nil, fmt.Errorf("pipeline not built")
	}
	return p.ranker.Rank(author, p.centroids)
}

// Space returns the embedding space of the last build.
func (p *Pipeline) Space() port.EmbeddingSpace {
	return p.space
}
