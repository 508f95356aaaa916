package port

import (
	"errors"

	"github.com/selwyth/diverse-crowd/internal/domain"
)

// ErrNotFound is returned by stores when a key has no entry.
var ErrNotFound = errors.New("not found")

// BatchStore persists fetched batches under a caller-chosen name.
type BatchStore interface {
	GetBatch(name string) (domain.Batch, error)

	PutBatch(name string, batch domain.Batch) error

	DeleteBatch(name string) error
}

// SpaceStore persists trained embedding spaces under a caller-chosen name.
type SpaceStore interface {
	// GetSpace returns the stored space if it was trained with the given config hash.
	GetSpace(name, configHash string) (EmbeddingSpace, error)

	PutSpace(name, configHash string, space EmbeddingSpace) error

	DeleteSpace(name string) error

	Close() error
}
