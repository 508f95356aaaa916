package port

import (
	"context"

	"github.com/selwyth/diverse-crowd/internal/domain"
)

// PostSource supplies records for a roster of authors.
type PostSource interface {
	Fetch(ctx context.Context, authors []string) (domain.Batch, error)
}
