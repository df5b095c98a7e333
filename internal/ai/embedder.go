package ai

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Embedder runs an ordered attempt list of backends. The first backend
// that returns without error wins for the whole batch; a remote failure
// is therefore never visible to callers, only to the log. If every
// backend fails, zero vectors of the nominal dimension are returned so
// the request path stays alive in degraded mode.
type Embedder struct {
	providers []Provider
	dim       int
}

func NewEmbedder(dim int, providers ...Provider) *Embedder {
	if dim <= 0 {
		dim = 384
	}
	return &Embedder{providers: providers, dim: dim}
}

// ActiveBackend names the preferred backend, for health reporting.
func (e *Embedder) ActiveBackend() string {
	if len(e.providers) == 0 {
		return "none"
	}
	return e.providers[0].Name()
}

func (e *Embedder) Dimension() int {
	return e.dim
}

// EmbedBatch returns exactly one vector per input text, in input order.
// An empty batch returns an empty result without touching any backend.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) [][]float32 {
	if len(texts) == 0 {
		return [][]float32{}
	}
	logger := logutil.GetLogger(ctx)
	for _, p := range e.providers {
		vectors, err := p.EmbedBatch(ctx, texts, taskType)
		if err == nil && len(vectors) == len(texts) {
			return vectors
		}
		logger.Warn("embedding backend failed, trying next",
			zap.String("backend", p.Name()),
			zap.Int("batch", len(texts)),
			zap.Error(err),
		)
	}
	logger.Error("all embedding backends failed, emitting zero vectors",
		zap.Int("batch", len(texts)),
		zap.Int("dim", e.dim),
	)
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, e.dim)
	}
	return vectors
}
