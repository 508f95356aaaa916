package port

import "context"

// EmbeddingSpace maps tokens to fixed-dimension vectors. Read-only once built.
type EmbeddingSpace interface {
	// Lookup returns the vector for token. A miss is not an error.
	Lookup(token string) ([]float32, bool)

	// Dimension returns the vector dimension shared by every token.
	Dimension() int

	// Vocabulary returns every token with a vector, in lexical order.
	Vocabulary() []string

	// Name identifies where the space came from.
	Name() string
}

// EmbeddingProvider builds or loads an EmbeddingSpace.
// Trained providers learn from sentences; pretrained providers ignore them.
type EmbeddingProvider interface {
	Provide(ctx context.Context, sentences [][]string) (EmbeddingSpace, error)
}
