package embedding

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"log/slog"
	"math"

	"github.com/selwyth/diverse-crowd/internal/port"
)

// TrainerConfig holds the training parameters of a locally learned space.
type TrainerConfig struct {
	Dimension int
	Window    int
	MinCount  int
	Nonzero   int // non-zero entries per random index vector
	Seed      uint64
}

// DefaultTrainerConfig mirrors the usual word2vec defaults for a small corpus.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Dimension: 100,
		Window:    5,
		MinCount:  2,
		Nonzero:   8,
		Seed:      1,
	}
}

// ProgressFunc reports training progress over sentences.
type ProgressFunc func(processed, total int)

// Trainer learns word vectors from tokenized sentences using random indexing:
// every token gets a sparse, hash-seeded index vector and its embedding is the
// distance-weighted sum of the index vectors of its neighbours.
// Output depends only on the sentences, their order and the config.
type Trainer struct {
	cfg      TrainerConfig
	name     string
	logger   *slog.Logger
	progress ProgressFunc
}

// NewTrainer creates a new Trainer. Zero config fields fall back to defaults.
func NewTrainer(name string, cfg TrainerConfig, logger *slog.Logger) *Trainer {
	def := DefaultTrainerConfig()
	if cfg.Dimension <= 0 {
		cfg.Dimension = def.Dimension
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinCount <= 0 {
		cfg.MinCount = def.MinCount
	}
	if cfg.Nonzero <= 0 {
		cfg.Nonzero = def.Nonzero
	}
	if cfg.Nonzero > cfg.Dimension {
		cfg.Nonzero = cfg.Dimension
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, name: name, logger: logger}
}

// OnProgress registers a callback invoked after each sentence.
func (t *Trainer) OnProgress(fn ProgressFunc) {
	t.progress = fn
}

// Config returns the effective training config.
func (t *Trainer) Config() TrainerConfig {
	return t.cfg
}

// Provide trains a space from sentences.
func (t *Trainer) Provide(ctx context.Context, sentences [][]string) (port.EmbeddingSpace, error) {
	return t.Train(ctx, sentences)
}

// Train builds a KeyedVectors from sentences. Tokens seen fewer than MinCount
// times across all sentences are left out of the vocabulary.
func (t *Trainer) Train(ctx context.Context, sentences [][]string) (*KeyedVectors, error) {
	counts := make(map[string]int)
	for _, s := range sentences {
		for _, tok := range s {
			if tok == "" {
				continue // never in the vocabulary
			}
			counts[tok]++
		}
	}

	// Out-of-vocabulary tokens are dropped before windowing.
	trimmed := make([][]string, len(sentences))
	for i, s := range sentences {
		kept := make([]string, 0, len(s))
		for _, tok := range s {
			if counts[tok] >= t.cfg.MinCount {
				kept = append(kept, tok)
			}
		}
		trimmed[i] = kept
	}

	index := make(map[string][]sparseEntry)
	indexOf := func(tok string) []sparseEntry {
		if iv, ok := index[tok]; ok {
			return iv
		}
		iv := t.indexVector(tok)
		index[tok] = iv
		return iv
	}

	acc := make(map[string][]float64)
	for i, s := range trimmed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for pos, tok := range s {
			vec, ok := acc[tok]
			if !ok {
				vec = make([]float64, t.cfg.Dimension)
				addSparse(vec, indexOf(tok), 1)
				acc[tok] = vec
			}
			lo := pos - t.cfg.Window
			if lo < 0 {
				lo = 0
			}
			hi := pos + t.cfg.Window
			if hi >= len(s) {
				hi = len(s) - 1
			}
			for j := lo; j <= hi; j++ {
				if j == pos {
					continue
				}
				d := pos - j
				if d < 0 {
					d = -d
				}
				addSparse(vec, indexOf(s[j]), 1/float64(d))
			}
		}
		if t.progress != nil {
			t.progress(i+1, len(trimmed))
		}
	}

	kv := NewKeyedVectors(t.name, t.cfg.Dimension)
	for tok, vec := range acc {
		if err := kv.Add(tok, normalize(vec)); err != nil {
			return nil, err
		}
	}

	t.logger.Info("trained embedding space",
		"name", t.name,
		"sentences", len(sentences),
		"distinct_tokens", len(counts),
		"vocabulary", kv.Len(),
		"min_count", t.cfg.MinCount,
	)
	return kv, nil
}

type sparseEntry struct {
	pos  int
	sign float64
}

// indexVector derives Nonzero distinct positions and signs from the token hash.
func (t *Trainer) indexVector(token string) []sparseEntry {
	h := fnv.New64a()
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], t.cfg.Seed)
	_, _ = h.Write(seed[:])
	_, _ = h.Write([]byte(token))
	state := h.Sum64()

	entries := make([]sparseEntry, 0, t.cfg.Nonzero)
	used := make(map[int]struct{}, t.cfg.Nonzero)
	for len(entries) < t.cfg.Nonzero {
		state = state*6364136223846793005 + 1442695040888963407
		pos := int((state >> 33) % uint64(t.cfg.Dimension))
		if _, dup := used[pos]; dup {
			continue
		}
		used[pos] = struct{}{}
		sign := 1.0
		if state&(1<<20) != 0 {
			sign = -1.0
		}
		entries = append(entries, sparseEntry{pos: pos, sign: sign})
	}
	return entries
}

func addSparse(dst []float64, entries []sparseEntry, weight float64) {
	for _, e := range entries {
		dst[e.pos] += e.sign * weight
	}
}

// normalize scales vec to unit length.
func normalize(vec []float64) []float32 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	for i, v := range vec {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out
}
