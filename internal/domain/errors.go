package domain

import "errors"

var (
	// ErrEmptyBatch is returned when a pipeline is built without records.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrEmbeddingLoad is returned when a pretrained embedding source cannot be fetched or parsed.
	ErrEmbeddingLoad = errors.New("embedding load failed")

	// ErrUnknownAuthor is returned when an author has no centroid to rank against.
	ErrUnknownAuthor = errors.New("unknown author")
)
