// Package embedcache wraps an embedding provider with an in-process LRU
// so repeated ingests and queries of identical text skip the backend.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mnemo-dev/mnemo/internal/ai"
)

func Wrap(next ai.Provider, size int, ttl time.Duration) ai.Provider {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruProvider{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruProvider struct {
	next  ai.Provider
	cache *expirable.LRU[string, []float32]
}

func (l *lruProvider) Name() string {
	return l.next.Name()
}

func (l *lruProvider) Dimension() int {
	return l.next.Dimension()
}

// EmbedBatch serves cached entries and forwards only the misses as a
// sub-batch, merging results back in input order. Per-text embeddings
// are independent, so a partial forward is equivalent to the full call.
func (l *lruProvider) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		key := cacheKey(l.next.Name(), taskType, text)
		if cached, ok := l.cache.Get(key); ok {
			vectors[i] = cloneVector(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit for full batch",
			zap.Int("batch", len(texts)),
			zap.String("task_type", taskType),
		)
		return vectors, nil
	}
	fetched, err := l.next.EmbedBatch(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		vectors[idx] = fetched[j]
		l.cache.Add(cacheKey(l.next.Name(), taskType, texts[idx]), cloneVector(fetched[j]))
	}
	return vectors, nil
}

func cacheKey(backend, taskType, text string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{backend, taskType, text}, "|")))
	return hex.EncodeToString(sum[:])
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
