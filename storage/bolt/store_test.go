package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := open(filepath.Join(t.TempDir(), "lectern.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Meta(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadMeta(ctx, "c")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	meta := &core.CollectionMeta{
		Name:        "c",
		Generation:  1,
		Dimension:   3,
		Metric:      core.MetricCosine,
		Consistency: core.ConsistencyStrong,
		CreatedAt:   time.UnixMicro(1_700_000_000_000_000).UTC(),
	}
	require.NoError(t, store.SaveMeta(ctx, meta))

	loaded, err := store.LoadMeta(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)

	require.NoError(t, store.DeleteMeta(ctx, "c"))
	_, err = store.LoadMeta(ctx, "c")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_GenerationsAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g1, err := store.NextGeneration(ctx)
	require.NoError(t, err)
	g2, err := store.NextGeneration(ctx)
	require.NoError(t, err)
	require.Greater(t, g2, g1)

	require.NoError(t, store.PutRecords(ctx, "c", g1, []*core.EmbeddingRecord{
		{Id: 1, Vector: []float32{0, 1}, Text: "b"},
		{Id: 0, Vector: []float32{1, 0}, Text: "a"},
	}))
	require.NoError(t, store.PutRecords(ctx, "c", g2, []*core.EmbeddingRecord{
		{Id: 0, Vector: []float32{1, 0}, Text: "new"},
	}))

	collect := func(gen uint64) []string {
		var texts []string
		require.NoError(t, store.ScanRecords(ctx, "c", gen, func(r *core.EmbeddingRecord) error {
			texts = append(texts, r.Text)
			return nil
		}))
		return texts
	}

	assert.Equal(t, []string{"a", "b"}, collect(g1))
	assert.Equal(t, []string{"new"}, collect(g2))

	require.NoError(t, store.DropGeneration(ctx, "c", g1))
	assert.Empty(t, collect(g1))
	assert.Equal(t, []string{"new"}, collect(g2))

	assert.NoError(t, store.DropGeneration(ctx, "c", g1), "dropping twice is harmless")
	assert.NoError(t, store.DropGeneration(ctx, "missing", 1))
}

func TestStore_FindSimilar(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutRecords(ctx, "c", 1, []*core.EmbeddingRecord{
		{Id: 0, Vector: []float32{0.1, 0.9}, Text: "far"},
		{Id: 1, Vector: []float32{0.9, 0.1}, Text: "near"},
	}))

	hits, err := store.FindSimilar(ctx, "c", 1, []float32{1, 0}, core.MetricInnerProduct, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].Text)
	assert.Equal(t, core.ID(1), hits[0].Id)

	_, err = store.FindSimilar(ctx, "c", 1, []float32{1, 0}, core.MetricInnerProduct, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
