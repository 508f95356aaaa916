package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/selwyth/diverse-crowd/internal/adapter/embedding"
	"github.com/selwyth/diverse-crowd/internal/port"
	"go.etcd.io/bbolt"
)

// spaceMeta is stored beside each trained space's vectors.
type spaceMeta struct {
	Dimension  int       `json:"dimension"`
	Vocabulary int       `json:"vocabulary"`
	ConfigHash string    `json:"config_hash"`
	TrainedAt  time.Time `json:"trained_at"`
}

// GetSpace loads the space stored under name. A space trained under a
// different config hash is reported as not found so callers retrain.
func (s *BoltStore) GetSpace(name, configHash string) (port.EmbeddingSpace, error) {
	var kv *embedding.KeyedVectors
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSpaceMeta).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("space %s: %w", name, port.ErrNotFound)
		}
		var meta spaceMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		if meta.ConfigHash != configHash {
			return fmt.Errorf("space %s trained with a different configuration: %w", name, port.ErrNotFound)
		}

		b := tx.Bucket(bucketSpaces).Bucket([]byte(name))
		if b == nil {
			return fmt.Errorf("space %s vectors: %w", name, port.ErrNotFound)
		}

		kv = embedding.NewKeyedVectors(name, meta.Dimension)
		return b.ForEach(func(k, v []byte) error {
			vec, err := decodeVector(v)
			if err != nil {
				return fmt.Errorf("token %q: %w", k, err)
			}
			return kv.Add(string(k), vec)
		})
	})
	if err != nil {
		return nil, err
	}
	return kv, nil
}

// PutSpace replaces whatever was stored under name.
func (s *BoltStore) PutSpace(name, configHash string, space port.EmbeddingSpace) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		spaces := tx.Bucket(bucketSpaces)
		if spaces.Bucket([]byte(name)) != nil {
			if err := spaces.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		b, err := spaces.CreateBucket([]byte(name))
		if err != nil {
			return fmt.Errorf("failed to create space bucket: %w", err)
		}

		vocab := space.Vocabulary()
		for _, tok := range vocab {
			vec, _ := space.Lookup(tok)
			if err := b.Put([]byte(tok), encodeVector(vec)); err != nil {
				return err
			}
		}

		meta := spaceMeta{
			Dimension:  space.Dimension(),
			Vocabulary: len(vocab),
			ConfigHash: configHash,
			TrainedAt:  time.Now().UTC(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSpaceMeta).Put([]byte(name), data)
	})
}

// DeleteSpace removes a stored space.
func (s *BoltStore) DeleteSpace(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		spaces := tx.Bucket(bucketSpaces)
		if spaces.Bucket([]byte(name)) != nil {
			if err := spaces.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketSpaceMeta).Delete([]byte(name))
	})
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
