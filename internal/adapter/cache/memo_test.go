package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/selwyth/diverse-crowd/internal/adapter/memstore"
	"github.com/selwyth/diverse-crowd/internal/domain"
)

func TestBatchMemo_ComputesOnceThenHits(t *testing.T) {
	memo := NewBatchMemo(memstore.NewMemoryStore(), nil)

	calls := 0
	compute := func(ctx context.Context) (domain.Batch, error) {
		calls++
		return domain.Batch{{Text: "hello", Author: "A"}}, nil
	}

	for i := 0; i < 3; i++ {
		batch, err := memo.LoadOrCompute(context.Background(), "tweets", false, compute)
		if err != nil {
			t.Fatal(err)
		}
		if len(batch) != 1 {
			t.Fatalf("expected 1 record, got %d", len(batch))
		}
	}
	if calls != 1 {
		t.Errorf("expected compute to run once, ran %d times", calls)
	}
}

func TestBatchMemo_Refresh(t *testing.T) {
	store := memstore.NewMemoryStore()
	memo := NewBatchMemo(store, nil)

	store.PutBatch("tweets", domain.Batch{{Text: "old", Author: "A"}})

	batch, err := memo.LoadOrCompute(context.Background(), "tweets", true, func(ctx context.Context) (domain.Batch, error) {
		return domain.Batch{{Text: "new", Author: "A"}}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if batch[0].Text != "new" {
		t.Errorf("expected refreshed batch, got %v", batch)
	}

	stored, _ := store.GetBatch("tweets")
	if stored[0].Text != "new" {
		t.Errorf("expected refreshed batch to be stored, got %v", stored)
	}
}

func TestBatchMemo_ComputeErrorNotCached(t *testing.T) {
	store := memstore.NewMemoryStore()
	memo := NewBatchMemo(store, nil)
	boom := errors.New("boom")

	_, err := memo.LoadOrCompute(context.Background(), "tweets", false, func(ctx context.Context) (domain.Batch, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected compute error, got %v", err)
	}
	if _, err := store.GetBatch("tweets"); err == nil {
		t.Error("expected nothing cached after a failed compute")
	}
}

func TestBatchMemo_KeysAreIndependent(t *testing.T) {
	memo := NewBatchMemo(memstore.NewMemoryStore(), nil)

	for _, key := range []string{"a", "b"} {
		key := key
		batch, err := memo.LoadOrCompute(context.Background(), key, false, func(ctx context.Context) (domain.Batch, error) {
			return domain.Batch{{Text: key, Author: key}}, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if batch[0].Text != key {
			t.Errorf("expected batch for %s, got %v", key, batch)
		}
	}
}
