package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalProviderDeterministic(t *testing.T) {
	p := newLocalForTest(t, 384)
	a, err := p.EmbedBatch(context.Background(), []string{"the quick brown fox"}, TaskRetrievalDocument)
	require.NoError(t, err)
	b, err := p.EmbedBatch(context.Background(), []string{"the quick brown fox"}, TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestLocalProviderNormalized(t *testing.T) {
	p := newLocalForTest(t, 384)
	vecs, err := p.EmbedBatch(context.Background(), []string{"semantic retrieval over personal documents"}, TaskRetrievalDocument)
	require.NoError(t, err)
	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalProviderNoTokensYieldsZeroVector(t *testing.T) {
	p := newLocalForTest(t, 64)
	vecs, err := p.EmbedBatch(context.Background(), []string{"!!! ... ---"}, TaskRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, vecs[0], 64)
	for _, v := range vecs[0] {
		require.Zero(t, v)
	}
}

func TestLocalProviderSimilarTextsScoreCloser(t *testing.T) {
	p := newLocalForTest(t, 384)
	vecs, err := p.EmbedBatch(context.Background(), []string{
		"grocery list apples bananas milk",
		"shopping list apples bananas bread",
		"quarterly revenue report finance",
	}, TaskRetrievalDocument)
	require.NoError(t, err)

	related := cosine(vecs[0], vecs[1])
	unrelated := cosine(vecs[0], vecs[2])
	require.Greater(t, related, unrelated)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
