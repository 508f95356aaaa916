package port

import "github.com/selwyth/diverse-crowd/internal/domain"

// Ranker orders authors by similarity to a query author.
type Ranker interface {
	Rank(query string, centroids domain.AuthorCentroids) (domain.Ranking, error)
}
