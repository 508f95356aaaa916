package ranker

import (
	"errors"
	"math"
	"testing"

	"github.com/selwyth/diverse-crowd/internal/domain"
)

func centroid(author string, v ...float64) domain.Centroid {
	return domain.Centroid{Author: author, Vector: v, Posts: 1, Tokens: 1}
}

func TestRank_OrdersByDistance(t *testing.T) {
	r := NewEuclideanRanker()

	centroids := domain.AuthorCentroids{
		"q":    centroid("q", 0, 0),
		"far":  centroid("far", 3, 4),
		"near": centroid("near", 1, 0),
		"mid":  centroid("mid", 0, 2),
	}

	ranking, err := r.Rank("q", centroids)
	if err != nil {
		t.Fatal(err)
	}

	expected := []domain.Neighbor{
		{Author: "near", Distance: 1},
		{Author: "mid", Distance: 2},
		{Author: "far", Distance: 5},
	}
	if len(ranking) != len(expected) {
		t.Fatalf("expected %d neighbors, got %d: %v", len(expected), len(ranking), ranking)
	}
	for i, n := range expected {
		if ranking[i].Author != n.Author || !floatEquals(ranking[i].Distance, n.Distance, 1e-12) {
			t.Errorf("position %d: expected %v, got %v", i, n, ranking[i])
		}
	}
}

func TestRank_ExcludesQuery(t *testing.T) {
	r := NewEuclideanRanker()

	centroids := domain.AuthorCentroids{
		"a": centroid("a", 1),
		"b": centroid("b", 1),
	}

	ranking, err := r.Rank("a", centroids)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range ranking {
		if n.Author == "a" {
			t.Error("query author must not appear in its own ranking")
		}
	}
}

func TestRank_TiesBrokenByAuthor(t *testing.T) {
	r := NewEuclideanRanker()

	centroids := domain.AuthorCentroids{
		"q":     centroid("q", 0, 0),
		"zed":   centroid("zed", 1, 0),
		"alpha": centroid("alpha", 0, 1),
		"mike":  centroid("mike", -1, 0),
		"bravo": centroid("bravo", 0, -1),
	}

	// Repeat to shake out any dependence on map iteration order.
	for i := 0; i < 20; i++ {
		ranking, err := r.Rank("q", centroids)
		if err != nil {
			t.Fatal(err)
		}
		got := ""
		for _, n := range ranking {
			got += n.Author + ","
		}
		if got != "alpha,bravo,mike,zed," {
			t.Fatalf("expected lexical tie-break, got %s", got)
		}
	}
}

func TestRank_NonDecreasing(t *testing.T) {
	r := NewEuclideanRanker()

	centroids := domain.AuthorCentroids{}
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		centroids[name] = centroid(name, float64(i*i%5), float64(i%3))
	}

	for _, query := range centroids.Authors() {
		ranking, err := r.Rank(query, centroids)
		if err != nil {
			t.Fatal(err)
		}
		if len(ranking) != len(centroids)-1 {
			t.Errorf("expected %d neighbors for %s, got %d", len(centroids)-1, query, len(ranking))
		}
		for i := 1; i < len(ranking); i++ {
			prev, cur := ranking[i-1], ranking[i]
			if cur.Distance < prev.Distance {
				t.Errorf("ranking for %s not sorted at %d: %v", query, i, ranking)
			}
			if cur.Distance == prev.Distance && cur.Author < prev.Author {
				t.Errorf("tie for %s not broken by author at %d: %v", query, i, ranking)
			}
		}
	}
}

func TestRank_UnknownAuthor(t *testing.T) {
	r := NewEuclideanRanker()

	centroids := domain.AuthorCentroids{
		"a":     centroid("a", 1),
		"empty": {Author: "empty", Posts: 2},
	}

	tests := []struct {
		name  string
		query string
	}{
		{"absent", "nobody"},
		{"undefined centroid", "empty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Rank(tc.query, centroids)
			if !errors.Is(err, domain.ErrUnknownAuthor) {
				t.Errorf("expected ErrUnknownAuthor, got %v", err)
			}
		})
	}
}

func TestRank_ExcludesUndefinedCandidates(t *testing.T) {
	r := NewEuclideanRanker()

	centroids := domain.AuthorCentroids{
		"a":     centroid("a", 0),
		"b":     centroid("b", 2),
		"empty": {Author: "empty", Posts: 3},
	}

	ranking, err := r.Rank("a", centroids)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranking) != 1 || ranking[0].Author != "b" {
		t.Errorf("expected only b, got %v", ranking)
	}
	for _, n := range ranking {
		if math.IsNaN(n.Distance) {
			t.Errorf("unexpected NaN distance for %s", n.Author)
		}
	}
}

func TestRank_SingleAuthor(t *testing.T) {
	r := NewEuclideanRanker()

	ranking, err := r.Rank("solo", domain.AuthorCentroids{"solo": centroid("solo", 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranking) != 0 {
		t.Errorf("expected empty ranking, got %v", ranking)
	}
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
		wantErr  bool
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, expected: 0},
		{name: "3-4-5", a: []float64{0, 0}, b: []float64{3, 4}, expected: 5},
		{name: "negative", a: []float64{-1}, b: []float64{1}, expected: 2},
		{name: "mismatch", a: []float64{1}, b: []float64{1, 2}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := euclideanDistance(tc.a, tc.b)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !floatEquals(d, tc.expected, 1e-12) {
				t.Errorf("euclideanDistance(%v, %v) = %f, expected %f", tc.a, tc.b, d, tc.expected)
			}
		})
	}
}

func floatEquals(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
