package usecase

import (
	"context"
	"log/slog"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
	"golang.org/x/sync/errgroup"
)

// Aggregator reduces each author's posts to a single centroid vector.
type Aggregator struct {
	normalizer port.Normalizer
	workers    int
	logger     *slog.Logger
}

// NewAggregator creates a new aggregator. workers > 1 computes author
// centroids in parallel; results are identical either way.
func NewAggregator(normalizer port.Normalizer, workers int, logger *slog.Logger) *Aggregator {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		normalizer: normalizer,
		workers:    workers,
		logger:     logger,
	}
}

// authorGroup holds one author's records in batch order.
type authorGroup struct {
	author  string
	records []domain.Record
}

// partition groups records by author. Records by the same author need not be
// adjacent; authors appear in first-seen order.
func partition(batch domain.Batch) []authorGroup {
	index := make(map[string]int)
	var groups []authorGroup
	for _, r := range batch {
		i, ok := index[r.Author]
		if !ok {
			i = len(groups)
			index[r.Author] = i
			groups = append(groups, authorGroup{author: r.Author})
		}
		groups[i].records = append(groups[i].records, r)
	}
	return groups
}

// Aggregate computes one centroid per author in batch. Authors without a
// single in-vocabulary token get an undefined centroid.
func (a *Aggregator) Aggregate(ctx context.Context, batch domain.Batch, space port.EmbeddingSpace) (domain.AuthorCentroids, error) {
	groups := partition(batch)
	results := make([]domain.Centroid, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range groups {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.centroid(groups[i], space)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	centroids := make(domain.AuthorCentroids, len(results))
	for _, c := range results {
		centroids[c.Author] = c
		if !c.Defined() {
			a.logger.Warn("author has no in-vocabulary tokens; excluded from rankings",
				"author", c.Author, "posts", c.Posts)
			continue
		}
		a.logger.Debug("computed centroid", "author", c.Author, "posts", c.Posts, "tokens", c.Tokens)
	}
	return centroids, nil
}

func (a *Aggregator) centroid(group authorGroup, space port.EmbeddingSpace) domain.Centroid {
	c := domain.Centroid{Author: group.author, Posts: len(group.records)}

	// One flat collection, appended in record order, keeps the sum order fixed.
	var vectors [][]float32
	for _, r := range group.records {
		for _, tok := range a.normalizer.Normalize(r.Text) {
			if v, ok := space.Lookup(tok); ok {
				vectors = append(vectors, v)
			}
		}
	}
	if len(vectors) == 0 {
		return c
	}

	c.Tokens = len(vectors)
	c.Vector = mean(vectors, space.Dimension())
	return c
}

// mean returns the element-wise mean of vectors.
func mean(vectors [][]float32, dimension int) []float64 {
	sum := make([]float64, dimension)
	for _, v := range vectors {
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	n := float64(len(vectors))
	for i := range sum {
		sum[i] /= n
	}
	return sum
}
