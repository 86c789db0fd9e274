package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/vector"
)

// Store is the byte cache used by CachedEmbedder
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

// CachedEmbedder memoizes embeddings by model and text. Cache errors
// are logged and the underlying embedder is used.
type CachedEmbedder struct {
	next      ai.Embedder
	store     Store
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewCachedEmbedder wraps next. namespace separates models that share
// a cache.
func NewCachedEmbedder(next ai.Embedder, store Store, namespace string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:      next,
		store:     store,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

// Dimension returns the dimension of the wrapped embedder
func (c *CachedEmbedder) Dimension() int {
	return c.next.Dimension()
}

// Embed returns the cached vector for text or computes and caches it
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	blob, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.warn("Embedding cache read failed", err)
	}
	if ok {
		if v, err := vector.Decode(blob); err == nil && len(v) == c.next.Dimension() {
			return v, nil
		}
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if blob, err := vector.Encode(v); err == nil {
		if err := c.store.Set(ctx, key, blob, c.ttl); err != nil {
			c.warn("Embedding cache write failed", err)
		}
	}
	return v, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return "emb:" + c.namespace + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, zap.String("namespace", c.namespace), zap.Error(err))
	}
}
