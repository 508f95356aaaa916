package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
	"go.etcd.io/bbolt"
)

var (
	bucketBatches   = []byte("batches")
	bucketBatchMeta = []byte("batch_meta")
	bucketSpaces    = []byte("spaces")
	bucketSpaceMeta = []byte("space_meta")
	bucketStats     = []byte("stats")
)

// BoltStore persists fetched batches and trained embedding spaces.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketBatches, bucketBatchMeta, bucketSpaces, bucketSpaceMeta, bucketStats}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// BatchInfo describes a cached batch without loading its records.
type BatchInfo struct {
	Name      string    `json:"name"`
	Records   int       `json:"records"`
	Authors   int       `json:"authors"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (s *BoltStore) GetBatch(name string) (domain.Batch, error) {
	var batch domain.Batch
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketBatches).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("batch %s: %w", name, port.ErrNotFound)
		}
		return json.Unmarshal(data, &batch)
	})
	return batch, err
}

func (s *BoltStore) PutBatch(name string, batch domain.Batch) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(batch)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketBatches).Put([]byte(name), data); err != nil {
			return err
		}

		info := BatchInfo{
			Name:      name,
			Records:   len(batch),
			Authors:   len(batch.Authors()),
			FetchedAt: time.Now().UTC(),
		}
		infoData, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketBatchMeta).Put([]byte(name), infoData)
	})
}

func (s *BoltStore) DeleteBatch(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBatches).Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketBatchMeta).Delete([]byte(name))
	})
}

// ListBatches returns the cached batches sorted by name.
func (s *BoltStore) ListBatches() ([]BatchInfo, error) {
	var infos []BatchInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBatchMeta).ForEach(func(k, v []byte) error {
			var info BatchInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return nil // Skip corrupted entries
			}
			infos = append(infos, info)
			return nil
		})
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
