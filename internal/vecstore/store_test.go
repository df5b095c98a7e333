package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnemo-dev/mnemo/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func meta(owner int64, source string, seq int) model.ChunkMeta {
	return model.ChunkMeta{
		OwnerID:       owner,
		Source:        source,
		SequenceIndex: seq,
		CreatedAt:     "2024-05-01T00:00:00Z",
	}
}

func TestUpsertLengthMismatch(t *testing.T) {
	store := openTestStore(t)
	err := store.Upsert(context.Background(),
		[]string{"a", "b"},
		[]string{"only one"},
		[][]float32{{1, 0}},
		[]model.ChunkMeta{meta(1, "f.txt", 0)},
	)
	require.Error(t, err)
}

func TestQueryOwnerScopedAndOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"c1", "c2", "c3", "c4"},
		[]string{"owner7 near", "owner7 far", "owner7 mid", "owner8 near"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.7, 0.7, 0},
			{1, 0, 0},
		},
		[]model.ChunkMeta{
			meta(7, "a.txt", 0),
			meta(7, "a.txt", 1),
			meta(7, "a.txt", 2),
			meta(8, "b.txt", 0),
		},
	)
	require.NoError(t, err)

	got, err := store.Query(ctx, []float32{1, 0, 0}, 7, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, cand := range got {
		require.EqualValues(t, 7, cand.Meta.OwnerID)
	}
	require.Equal(t, "owner7 near", got[0].Text)
	require.Equal(t, "owner7 mid", got[1].Text)
	require.Equal(t, "owner7 far", got[2].Text)
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
}

func TestQueryTopKTruncates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"c1", "c2", "c3"},
		[]string{"one", "two", "three"},
		[][]float32{{1, 0}, {0.9, 0.1}, {0, 1}},
		[]model.ChunkMeta{meta(1, "f.txt", 0), meta(1, "f.txt", 1), meta(1, "f.txt", 2)},
	)
	require.NoError(t, err)

	got, err := store.Query(ctx, []float32{1, 0}, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestQuerySkipsDimensionMismatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"ok", "stale"},
		[]string{"current dims", "old dims"},
		[][]float32{{1, 0, 0}, {1, 0}},
		[]model.ChunkMeta{meta(1, "f.txt", 0), meta(1, "f.txt", 1)},
	)
	require.NoError(t, err)

	got, err := store.Query(ctx, []float32{1, 0, 0}, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "current dims", got[0].Text)
}

func TestUpsertReplacesExistingID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		[]string{"c1"}, []string{"before"}, [][]float32{{1, 0}},
		[]model.ChunkMeta{meta(1, "f.txt", 0)}))
	require.NoError(t, store.Upsert(ctx,
		[]string{"c1"}, []string{"after"}, [][]float32{{1, 0}},
		[]model.ChunkMeta{meta(1, "f.txt", 0)}))

	got, err := store.Query(ctx, []float32{1, 0}, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "after", got[0].Text)
}

func TestDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx,
		[]string{"c1"}, []string{"persisted"}, [][]float32{{0, 1}},
		[]model.ChunkMeta{meta(3, "f.txt", 0)}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Query(ctx, []float32{0, 1}, 3, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "persisted", got[0].Text)
}

func TestDeleteByOwner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		[]string{"c1", "c2"},
		[]string{"mine", "theirs"},
		[][]float32{{1, 0}, {1, 0}},
		[]model.ChunkMeta{meta(1, "f.txt", 0), meta(2, "g.txt", 0)}))

	n, err := store.DeleteByOwner(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := store.Query(ctx, []float32{1, 0}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = store.Query(ctx, []float32{1, 0}, 2, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
