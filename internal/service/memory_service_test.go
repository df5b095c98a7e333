package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnemo-dev/mnemo/internal/ai"
	"github.com/mnemo-dev/mnemo/internal/config"
	"github.com/mnemo-dev/mnemo/internal/model"
	appErr "github.com/mnemo-dev/mnemo/internal/pkg/errors"
	"github.com/mnemo-dev/mnemo/internal/vecstore"
)

func testChunking() config.ChunkingConfig {
	return config.ChunkingConfig{ChunkSize: 500, Overlap: 100, MaxChunks: 1000, MinTextChars: 20}
}

func testEmbedder(t *testing.T) *ai.Embedder {
	t.Helper()
	local, err := ai.NewProvider("local", map[string]interface{}{"embed_dim": 64})
	require.NoError(t, err)
	return ai.NewEmbedder(64, local)
}

type fakeIndex struct {
	upsertErr error
	queryErr  error
	results   []model.Candidate

	ids     []string
	texts   []string
	vectors [][]float32
	metas   []model.ChunkMeta
}

func (f *fakeIndex) Upsert(ctx context.Context, ids, texts []string, vectors [][]float32, metas []model.ChunkMeta) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.ids = append(f.ids, ids...)
	f.texts = append(f.texts, texts...)
	f.vectors = append(f.vectors, vectors...)
	f.metas = append(f.metas, metas...)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, ownerID int64, k int) ([]model.Candidate, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.results, nil
}

func TestIngestRejectsStorageUnavailable(t *testing.T) {
	svc := NewMemoryService(testEmbedder(t), nil, nil, nil, testChunking())
	_, err := svc.Ingest(context.Background(), 7, "a.txt", []byte(strings.Repeat("x", 100)))
	require.ErrorIs(t, err, appErr.ErrStorageUnavailable)
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	svc := NewMemoryService(testEmbedder(t), &fakeIndex{}, nil, nil, testChunking())
	_, err := svc.Ingest(context.Background(), 7, "a.txt", nil)
	require.ErrorIs(t, err, appErr.ErrEmptyFile)
}

func TestIngestRejectsInsufficientText(t *testing.T) {
	svc := NewMemoryService(testEmbedder(t), &fakeIndex{}, nil, nil, testChunking())
	_, err := svc.Ingest(context.Background(), 7, "a.txt", []byte("tiny note"))
	require.ErrorIs(t, err, appErr.ErrInsufficientText)

	// Whitespace padding does not help: the trimmed length counts.
	_, err = svc.Ingest(context.Background(), 7, "a.txt", []byte("   tiny note"+strings.Repeat(" ", 60)))
	require.ErrorIs(t, err, appErr.ErrInsufficientText)
}

func TestIngestStoresOwnerTaggedChunks(t *testing.T) {
	index := &fakeIndex{}
	svc := NewMemoryService(testEmbedder(t), index, nil, nil, testChunking())

	text := strings.Repeat("memory is a strange archive ", 80) // ~2240 chars
	res, err := svc.Ingest(context.Background(), 7, "notes.txt", []byte(text))
	require.NoError(t, err)
	require.Equal(t, len(index.texts), res.ChunkCount)
	require.Greater(t, res.ChunkCount, 1)

	require.Len(t, index.ids, res.ChunkCount)
	require.Len(t, index.vectors, res.ChunkCount)
	require.Len(t, index.metas, res.ChunkCount)

	seen := make(map[string]struct{})
	for i, meta := range index.metas {
		require.EqualValues(t, 7, meta.OwnerID)
		require.Equal(t, "notes.txt", meta.Source)
		require.Equal(t, i, meta.SequenceIndex)
		require.NotEmpty(t, meta.CreatedAt)
		require.Len(t, index.vectors[i], 64)

		_, dup := seen[index.ids[i]]
		require.False(t, dup, "chunk ids must be unique")
		seen[index.ids[i]] = struct{}{}
	}
}

func TestIngestChunkCountFollowsWindowFormula(t *testing.T) {
	index := &fakeIndex{}
	svc := NewMemoryService(testEmbedder(t), index, nil, nil, testChunking())

	// 2000 chars, window 500, stride 400: starts at 0/400/800/1200/1600.
	res, err := svc.Ingest(context.Background(), 7, "big.txt", []byte(strings.Repeat("m", 2000)))
	require.NoError(t, err)
	require.Equal(t, 5, res.ChunkCount)
}

func TestIngestStorageFailed(t *testing.T) {
	index := &fakeIndex{upsertErr: errors.New("disk full")}
	svc := NewMemoryService(testEmbedder(t), index, nil, nil, testChunking())
	_, err := svc.Ingest(context.Background(), 7, "a.txt", []byte(strings.Repeat("x", 100)))
	require.ErrorIs(t, err, appErr.ErrStorageFailed)
}

func TestRetrieveDropsForeignOwnerCandidates(t *testing.T) {
	// Simulate a broken native filter leaking another user's chunk.
	index := &fakeIndex{results: []model.Candidate{
		{Text: "mine", Meta: model.ChunkMeta{OwnerID: 7}, Distance: 0.1},
		{Text: "leaked", Meta: model.ChunkMeta{OwnerID: 8}, Distance: 0.2},
		{Text: "also mine", Meta: model.ChunkMeta{OwnerID: 7}, Distance: 0.3},
	}}
	svc := NewMemoryService(testEmbedder(t), index, nil, nil, testChunking())

	got, err := svc.Retrieve(context.Background(), 7, "query", 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, cand := range got {
		require.EqualValues(t, 7, cand.Meta.OwnerID)
	}
}

func TestRetrieveStorageUnavailable(t *testing.T) {
	svc := NewMemoryService(testEmbedder(t), nil, nil, nil, testChunking())
	_, err := svc.Retrieve(context.Background(), 7, "query", 4)
	require.ErrorIs(t, err, appErr.ErrStorageUnavailable)
}

func TestHealth(t *testing.T) {
	up := NewMemoryService(testEmbedder(t), &fakeIndex{}, nil, nil, testChunking())
	require.True(t, up.Health().StorageAvailable)
	require.Equal(t, "local", up.Health().EmbeddingBackend)

	down := NewMemoryService(testEmbedder(t), nil, nil, nil, testChunking())
	require.False(t, down.Health().StorageAvailable)
}

func TestIngestAndRetrieveEndToEnd(t *testing.T) {
	store, err := vecstore.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	svc := NewMemoryService(testEmbedder(t), store, nil, nil, testChunking())
	ctx := context.Background()

	_, err = svc.Ingest(ctx, 7, "owner7.txt",
		[]byte(strings.Repeat("the project deadline moved to next friday ", 50)))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, 8, "owner8.txt",
		[]byte(strings.Repeat("completely unrelated cooking recipes and notes ", 50)))
	require.NoError(t, err)

	got, err := svc.Retrieve(ctx, 7, "when is the deadline", 4)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	require.LessOrEqual(t, len(got), 4)
	for i, cand := range got {
		require.EqualValues(t, 7, cand.Meta.OwnerID)
		require.Equal(t, "owner7.txt", cand.Meta.Source)
		if i > 0 {
			require.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
		}
	}
}
