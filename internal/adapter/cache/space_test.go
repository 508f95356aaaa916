package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/selwyth/diverse-crowd/internal/adapter/embedding"
	"github.com/selwyth/diverse-crowd/internal/adapter/memstore"
	"github.com/selwyth/diverse-crowd/internal/port"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Provide(ctx context.Context, sentences [][]string) (port.EmbeddingSpace, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	kv := embedding.NewKeyedVectors("counting", 1)
	kv.Add("x", []float32{float32(p.calls)})
	return kv, nil
}

func TestSpaceProvider_ReusesStoredSpace(t *testing.T) {
	store := memstore.NewMemoryStore()
	inner := &countingProvider{}

	for i := 0; i < 2; i++ {
		p := NewSpaceProvider(inner, store, "tweets", "h1", false, nil)
		space, err := p.Provide(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		v, _ := space.Lookup("x")
		if v[0] != 1 {
			t.Errorf("expected first trained space, got %v", v)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one training run, got %d", inner.calls)
	}
}

func TestSpaceProvider_RetrainsOnHashChangeOrRefresh(t *testing.T) {
	store := memstore.NewMemoryStore()
	inner := &countingProvider{}

	NewSpaceProvider(inner, store, "tweets", "h1", false, nil).Provide(context.Background(), nil)
	NewSpaceProvider(inner, store, "tweets", "h2", false, nil).Provide(context.Background(), nil)
	if inner.calls != 2 {
		t.Errorf("expected retrain for a new config hash, got %d calls", inner.calls)
	}

	NewSpaceProvider(inner, store, "tweets", "h2", true, nil).Provide(context.Background(), nil)
	if inner.calls != 3 {
		t.Errorf("expected retrain on refresh, got %d calls", inner.calls)
	}
}

func TestSpaceProvider_ErrorNotStored(t *testing.T) {
	store := memstore.NewMemoryStore()
	boom := errors.New("boom")

	_, err := NewSpaceProvider(&countingProvider{err: boom}, store, "tweets", "h1", false, nil).
		Provide(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected provider error, got %v", err)
	}
	if _, err := store.GetSpace("tweets", corpusKey("h1", nil)); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected nothing stored, got %v", err)
	}
}

func TestSpaceProvider_RetrainsWhenCorpusChanges(t *testing.T) {
	store := memstore.NewMemoryStore()
	inner := &countingProvider{}

	first := [][]string{{"i", "feel", "good"}}
	second := [][]string{{"buying", "rockets"}}

	for _, sentences := range [][][]string{first, first, second, first} {
		if _, err := NewSpaceProvider(inner, store, "tweets", "h1", false, nil).Provide(context.Background(), sentences); err != nil {
			t.Fatal(err)
		}
	}
	// first trains, first reuses, second retrains, first retrains again
	// because only the latest space is kept under a name.
	if inner.calls != 3 {
		t.Errorf("expected 3 training runs, got %d", inner.calls)
	}
}

func TestCorpusKey(t *testing.T) {
	a := corpusKey("h", [][]string{{"ab", "c"}})
	if a != corpusKey("h", [][]string{{"ab", "c"}}) {
		t.Error("expected equal corpora to share a key")
	}
	tests := []struct {
		name      string
		hash      string
		sentences [][]string
	}{
		{"token boundary", "h", [][]string{{"a", "bc"}}},
		{"sentence boundary", "h", [][]string{{"ab"}, {"c"}}},
		{"config hash", "g", [][]string{{"ab", "c"}}},
		{"empty token", "h", [][]string{{"ab", "c", ""}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if corpusKey(tc.hash, tc.sentences) == a {
				t.Errorf("expected a different key for %v", tc.sentences)
			}
		})
	}
}
