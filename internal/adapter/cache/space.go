package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/selwyth/diverse-crowd/internal/port"
)

// SpaceProvider reuses a stored embedding space trained under the same name,
// config hash and corpus, and trains and stores one otherwise.
type SpaceProvider struct {
	inner      port.EmbeddingProvider
	store      port.SpaceStore
	name       string
	configHash string
	refresh    bool
	logger     *slog.Logger
}

func NewSpaceProvider(inner port.EmbeddingProvider, store port.SpaceStore, name, configHash string, refresh bool, logger *slog.Logger) *SpaceProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpaceProvider{
		inner:      inner,
		store:      store,
		name:       name,
		configHash: configHash,
		refresh:    refresh,
		logger:     logger,
	}
}

// Provide implements port.EmbeddingProvider.
func (p *SpaceProvider) Provide(ctx context.Context, sentences [][]string) (port.EmbeddingSpace, error) {
	key := corpusKey(p.configHash, sentences)
	if !p.refresh {
		space, err := p.store.GetSpace(p.name, key)
		if err == nil {
			p.logger.Info("reusing stored embedding space", "name", p.name, "vocabulary", len(space.Vocabulary()))
			return space, nil
		}
		if !errors.Is(err, port.ErrNotFound) {
			p.logger.Warn("stored embedding space unreadable, retraining", "name", p.name, "error", err)
		}
	}

	space, err := p.inner.Provide(ctx, sentences)
	if err != nil {
		return nil, err
	}

	if err := p.store.PutSpace(p.name, key, space); err != nil {
		return nil, fmt.Errorf("failed to store embedding space %s: %w", p.name, err)
	}
	p.logger.Debug("stored embedding space", "name", p.name, "key", key)
	return space, nil
}

// corpusKey extends configHash with a fingerprint of the training sentences,
// so a space is only reused for the exact corpus it was trained on.
func corpusKey(configHash string, sentences [][]string) string {
	h := sha256.New()
	for _, s := range sentences {
		h.Write([]byte{0x1e})
		for _, tok := range s {
			h.Write([]byte{0x1f})
			h.Write([]byte(tok))
		}
	}
	return configHash + "-" + hex.EncodeToString(h.Sum(nil)[:8])
}
