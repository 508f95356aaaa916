package main

import (
	"context"
	"testing"

	"github.com/selwyth/diverse-crowd/config"
	"github.com/selwyth/diverse-crowd/internal/adapter/embedding"
	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

type fixedProvider struct {
	space port.EmbeddingSpace
}

func (p fixedProvider) Provide(ctx context.Context, sentences [][]string) (port.EmbeddingSpace, error) {
	return p.space, nil
}

func TestRun_SkipsUndefinedAuthors(t *testing.T) {
	kv := embedding.NewKeyedVectors("fixture", 2)
	kv.Add("good", []float32{1, 0})
	kv.Add("great", []float32{0, 1})

	batch := domain.Batch{
		{Text: "good", Author: "A"},
		{Text: "great", Author: "B"},
		{Text: "rockets", Author: "C"},
	}

	r, err := run(context.Background(), config.DefaultConfig(), batch, fixedProvider{space: kv})
	if err != nil {
		t.Fatal(err)
	}
	if r.ranked != 2 {
		t.Errorf("expected 2 ranked authors, got %d", r.ranked)
	}
	if len(r.build.Undefined) != 1 || r.build.Undefined[0] != "C" {
		t.Errorf("expected C undefined, got %v", r.build.Undefined)
	}
}

func TestOverlapAt(t *testing.T) {
	rank := func(authors ...string) domain.Ranking {
		r := make(domain.Ranking, len(authors))
		for i, a := range authors {
			r[i] = domain.Neighbor{Author: a, Distance: float64(i)}
		}
		return r
	}

	tests := []struct {
		name     string
		a, b     domain.Ranking
		k        int
		expected float64
	}{
		{"identical", rank("x", "y"), rank("x", "y"), 2, 1},
		{"disjoint", rank("x"), rank("y"), 1, 0},
		{"half", rank("x", "y"), rank("y", "z"), 2, 0.5},
		{"top-k cut", rank("x", "y", "z"), rank("x", "z", "y"), 1, 1},
		{"empty", nil, rank("x"), 3, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := overlapAt(tc.a, tc.b, tc.k); got != tc.expected {
				t.Errorf("overlapAt = %f, expected %f", got, tc.expected)
			}
		})
	}
}
