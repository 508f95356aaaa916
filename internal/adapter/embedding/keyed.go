package embedding

import (
	"fmt"
	"sort"
)

// KeyedVectors is an in-memory token to vector lookup.
// It is populated once and treated as read-only afterwards.
type KeyedVectors struct {
	name      string
	dimension int
	vectors   map[string][]float32
}

// NewKeyedVectors creates an empty space of the given dimension.
func NewKeyedVectors(name string, dimension int) *KeyedVectors {
	return &KeyedVectors{
		name:      name,
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}
}

// Add stores the vector for token. The first vector added for a token wins.
func (kv *KeyedVectors) Add(token string, vector []float32) error {
	if len(vector) != kv.dimension {
		return fmt.Errorf("vector dimension mismatch for %q: expected %d, got %d", token, kv.dimension, len(vector))
	}
	if _, exists := kv.vectors[token]; exists {
		return nil
	}
	kv.vectors[token] = vector
	return nil
}

// Lookup returns the vector for token.
func (kv *KeyedVectors) Lookup(token string) ([]float32, bool) {
	v, ok := kv.vectors[token]
	return v, ok
}

// Dimension returns the vector dimension.
func (kv *KeyedVectors) Dimension() int {
	return kv.dimension
}

// Len returns the vocabulary size.
func (kv *KeyedVectors) Len() int {
	return len(kv.vectors)
}

// Vocabulary returns every token in lexical order.
func (kv *KeyedVectors) Vocabulary() []string {
	tokens := make([]string, 0, len(kv.vectors))
	for t := range kv.vectors {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Name returns the name the space was built or loaded under.
func (kv *KeyedVectors) Name() string {
	return kv.name
}
