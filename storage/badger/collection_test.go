package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.CollectionStore {
	t.Helper()
	store, backend, err := NewMemoryCollectionStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})
	return store
}

func TestCollectionStore_Meta(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadMeta(ctx, "lectures")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	meta := &core.CollectionMeta{
		Name:        "lectures",
		Generation:  3,
		Dimension:   4,
		Metric:      core.MetricInnerProduct,
		Consistency: core.ConsistencyStrong,
		Count:       2,
		CreatedAt:   time.UnixMicro(time.Now().UnixMicro()).UTC(),
	}
	require.NoError(t, store.SaveMeta(ctx, meta))

	loaded, err := store.LoadMeta(ctx, "lectures")
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)

	require.NoError(t, store.DeleteMeta(ctx, "lectures"))
	_, err = store.LoadMeta(ctx, "lectures")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, store.DeleteMeta(ctx, "never-existed"))
}

func TestCollectionStore_NextGeneration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.NextGeneration(ctx)
	require.NoError(t, err)
	second, err := store.NextGeneration(ctx)
	require.NoError(t, err)

	assert.NotZero(t, first)
	assert.Greater(t, second, first)
}

func TestCollectionStore_RecordsAreScopedByGeneration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutRecords(ctx, "c", 1, []*core.EmbeddingRecord{
		{Id: 2, Vector: []float32{0, 1}, Text: "two", Timestamp: "0:02"},
		{Id: 0, Vector: []float32{1, 0}, Text: "zero", Timestamp: "0:00"},
		{Id: 1, Vector: []float32{1, 1}, Text: "one", Timestamp: "0:01"},
	}))
	require.NoError(t, store.PutRecords(ctx, "c", 2, []*core.EmbeddingRecord{
		{Id: 0, Vector: []float32{1, 0}, Text: "other generation"},
	}))
	require.NoError(t, store.PutRecords(ctx, "c2", 1, []*core.EmbeddingRecord{
		{Id: 0, Vector: []float32{1, 0}, Text: "other collection"},
	}))

	var texts []string
	err := store.ScanRecords(ctx, "c", 1, func(r *core.EmbeddingRecord) error {
		texts = append(texts, r.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"zero", "one", "two"}, texts, "records come back in id order")

	require.NoError(t, store.DropGeneration(ctx, "c", 1))

	texts = nil
	err = store.ScanRecords(ctx, "c", 1, func(r *core.EmbeddingRecord) error {
		texts = append(texts, r.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, texts)

	texts = nil
	err = store.ScanRecords(ctx, "c", 2, func(r *core.EmbeddingRecord) error {
		texts = append(texts, r.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"other generation"}, texts)
}

func TestCollectionStore_FindSimilar(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*core.EmbeddingRecord{
		{Id: 0, Vector: []float32{1.0, 0.0, 0.0}, Text: "First message"},
		{Id: 1, Vector: []float32{0.9, 0.1, 0.0}, Text: "Second message"},
		{Id: 2, Vector: []float32{0.0, 0.0, 1.0}, Text: "Third message"},
	}
	require.NoError(t, store.PutRecords(ctx, "c", 1, records))

	t.Run("sorted by score descending", func(t *testing.T) {
		hits, err := store.FindSimilar(ctx, "c", 1, []float32{1, 0, 0}, core.MetricInnerProduct, 10)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "First message", hits[0].Text)
		for i := 0; i < len(hits)-1; i++ {
			assert.GreaterOrEqual(t, hits[i].Score, hits[i+1].Score)
		}
	})

	t.Run("limit", func(t *testing.T) {
		hits, err := store.FindSimilar(ctx, "c", 1, []float32{1, 0, 0}, core.MetricInnerProduct, 2)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("empty generation", func(t *testing.T) {
		hits, err := store.FindSimilar(ctx, "c", 99, []float32{1, 0, 0}, core.MetricInnerProduct, 2)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.FindSimilar(cctx, "c", 1, []float32{1, 0, 0}, core.MetricInnerProduct, 2)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
