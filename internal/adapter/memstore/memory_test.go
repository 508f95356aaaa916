package memstore

import (
	"errors"
	"testing"

	"github.com/selwyth/diverse-crowd/internal/adapter/embedding"
	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

func TestMemoryStore_Batches(t *testing.T) {
	s := NewMemoryStore()

	batch := domain.Batch{{Text: "hi", Author: "A"}}
	if err := s.PutBatch("tweets", batch); err != nil {
		t.Fatal(err)
	}
	batch[0].Text = "mutated"

	got, err := s.GetBatch("tweets")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Text != "hi" {
		t.Errorf("expected stored copy to be unaffected, got %q", got[0].Text)
	}

	if err := s.DeleteBatch("tweets"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetBatch("tweets"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_Spaces(t *testing.T) {
	s := NewMemoryStore()
	kv := embedding.NewKeyedVectors("tweets", 1)
	kv.Add("x", []float32{1})

	if err := s.PutSpace("tweets", "h1", kv); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSpace("tweets", "h1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSpace("tweets", "h2"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another hash, got %v", err)
	}

	if err := s.DeleteSpace("tweets"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSpace("tweets", "h1"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
