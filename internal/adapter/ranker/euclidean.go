package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/selwyth/diverse-crowd/internal/domain"
)

// EuclideanRanker orders authors by Euclidean distance between centroids.
type EuclideanRanker struct{}

// NewEuclideanRanker creates a new ranker.
func NewEuclideanRanker() *EuclideanRanker {
	return &EuclideanRanker{}
}

// Rank returns every other author with a defined centroid, nearest first.
// Ties are broken by author identifier so the order never depends on map iteration.
func (r *EuclideanRanker) Rank(query string, centroids domain.AuthorCentroids) (domain.Ranking, error) {
	q, ok := centroids[query]
	if !ok || !q.Defined() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAuthor, query)
	}

	ranking := make(domain.Ranking, 0, len(centroids)-1)
	for author, c := range centroids {
		if author == query || !c.Defined() {
			continue
		}
		d, err := euclideanDistance(q.Vector, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("failed to compare %s with %s: %w", query, author, err)
		}
		ranking = append(ranking, domain.Neighbor{Author: author, Distance: d})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Distance != ranking[j].Distance {
			return ranking[i].Distance < ranking[j].Distance
		}
		return ranking[i].Author < ranking[j].Author
	})

	return ranking, nil
}

// euclideanDistance computes sqrt(sum((a_i - b_i)^2)).
func euclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
