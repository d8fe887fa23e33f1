package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/storage"
	"github.com/poiesic/lectern/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "my_rag_collection"

func newTestManager(t *testing.T) (*Manager, storage.CollectionStore) {
	t.Helper()
	store, backend, err := badger.NewMemoryCollectionStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})
	mgr, err := NewManager(context.Background(), store, testCollection)
	require.NoError(t, err)
	return mgr, store
}

func records(dim int, texts ...string) []*core.EmbeddingRecord {
	out := make([]*core.EmbeddingRecord, len(texts))
	for i, text := range texts {
		vec := make([]float32, dim)
		vec[i%dim] = 1
		out[i] = &core.EmbeddingRecord{Id: core.ID(i), Vector: vec, Text: text, Timestamp: fmt.Sprintf("0:%02d", i)}
	}
	return out
}

func TestNewManager(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewManager(context.Background(), nil, testCollection)
		assert.ErrorIs(t, err, ErrStoreRequired)
	})

	t.Run("rejects bad names", func(t *testing.T) {
		store, backend, err := badger.NewMemoryCollectionStore()
		require.NoError(t, err)
		defer backend.Close()
		defer store.Close()

		for _, name := range []string{"", "has space", "colon:name"} {
			_, err := NewManager(context.Background(), store, name)
			assert.ErrorIs(t, err, core.ErrInvalidArgument, name)
		}
	})

	t.Run("restores published collection", func(t *testing.T) {
		store, backend, err := badger.NewMemoryCollectionStore()
		require.NoError(t, err)
		defer backend.Close()
		defer store.Close()
		ctx := context.Background()

		first, err := NewManager(ctx, store, testCollection)
		require.NoError(t, err)
		_, _, err = first.Replace(ctx, Spec{Name: testCollection, Dimension: 3}, records(3, "a", "b"))
		require.NoError(t, err)

		second, err := NewManager(ctx, store, testCollection)
		require.NoError(t, err)
		texts, err := second.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, texts)
	})
}

func TestRebuildCollection(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	t.Run("validates spec", func(t *testing.T) {
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 0})
		assert.ErrorIs(t, err, core.ErrInvalidArgument)

		_, err = mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3, Metric: core.Metric(42)})
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("defaults to inner product and strong consistency", func(t *testing.T) {
		meta, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)
		assert.Equal(t, core.MetricInnerProduct, meta.Metric)
		assert.Equal(t, core.ConsistencyStrong, meta.Consistency)
		assert.Equal(t, 3, meta.Dimension)
		assert.Zero(t, meta.Count)
	})

	t.Run("twice in a row leaves an empty collection", func(t *testing.T) {
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)
		_, err = mgr.InsertBatch(ctx, records(3, "a", "b", "c"))
		require.NoError(t, err)

		_, err = mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)
		_, err = mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, texts)

		report, err := mgr.InsertBatch(ctx, records(3, "fresh"))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
	})

	t.Run("changes dimension", func(t *testing.T) {
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 5})
		require.NoError(t, err)
		stats, err := mgr.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.Dimension)
	})
}

func TestInsertBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("without collection", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		_, err := mgr.InsertBatch(ctx, records(3, "a"))
		assert.ErrorIs(t, err, core.ErrCollectionNotFound)
	})

	t.Run("skips wrong-dimension records and reports a warning", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)

		batch := records(3, "a", "b", "c", "d")
		batch[1].Vector = []float32{1, 2}
		batch[3].Vector = nil

		report, err := mgr.InsertBatch(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, InsertReport{Total: 4, Inserted: 2, Skipped: 2}, report)
		assert.ErrorIs(t, report.Warning(), core.ErrDataIntegrityWarning)

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, texts)

		stats, err := mgr.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Count)
	})

	t.Run("no valid records writes nothing", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)

		report, err := mgr.InsertBatch(ctx, records(2, "a", "b"))
		assert.ErrorIs(t, err, core.ErrNoValidRecords)
		assert.Equal(t, 2, report.Skipped)

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, texts)
	})

	t.Run("batches accumulate and equal ids replace", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)

		_, err = mgr.InsertBatch(ctx, records(3, "a", "b"))
		require.NoError(t, err)

		second := records(3, "B", "c", "d")
		second[0].Id = 1
		second[1].Id = 2
		second[2].Id = 3
		_, err = mgr.InsertBatch(ctx, second)
		require.NoError(t, err)

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "B", "c", "d"}, texts)

		stats, err := mgr.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Count)
	})

	t.Run("failed write leaves the collection untouched", func(t *testing.T) {
		mgr, store := newTestManager(t)
		_, err := mgr.RebuildCollection(ctx, Spec{Name: testCollection, Dimension: 3})
		require.NoError(t, err)
		_, err = mgr.InsertBatch(ctx, records(3, "a", "b"))
		require.NoError(t, err)
		before, err := mgr.Stats(ctx)
		require.NoError(t, err)

		batch := records(3, "c", "d", "e", "f")
		for i, record := range batch {
			record.Id = core.ID(10 + i)
		}
		mgr.store = &failingStore{CollectionStore: store, partialPut: true}
		_, err = mgr.InsertBatch(ctx, batch)
		assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
		mgr.store = store

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, texts)

		after, err := mgr.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		hits, err := mgr.Search(ctx, []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, hits, 2)

		reloaded, err := store.LoadMeta(ctx, testCollection)
		require.NoError(t, err)
		assert.Equal(t, before.Generation, reloaded.Generation)
		assert.Equal(t, 2, reloaded.Count)
	})

	t.Run("clean batch has no warning", func(t *testing.T) {
		report := InsertReport{Total: 2, Inserted: 2}
		assert.NoError(t, report.Warning())
	})
}

func TestReplace(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes records in id order", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		meta, report, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 4}, records(4, "one", "two", "three"))
		require.NoError(t, err)
		assert.Equal(t, 3, meta.Count)
		assert.Equal(t, 3, report.Inserted)

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, texts)
	})

	t.Run("no valid records keeps the previous collection", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		_, _, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 3}, records(3, "kept"))
		require.NoError(t, err)

		_, _, err = mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 8}, records(3, "wrong"))
		assert.ErrorIs(t, err, core.ErrNoValidRecords)

		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, texts)
		stats, err := mgr.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Dimension)
	})

	t.Run("store failure keeps the previous collection", func(t *testing.T) {
		mgr, store := newTestManager(t)
		_, _, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 3}, records(3, "kept"))
		require.NoError(t, err)

		mgr.store = &failingStore{CollectionStore: store, failPut: true}
		_, _, err = mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 3}, records(3, "new"))
		assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)

		mgr.store = store
		texts, err := mgr.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, texts)
	})

	t.Run("renaming unpublishes the old name", func(t *testing.T) {
		mgr, store := newTestManager(t)
		_, _, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 3}, records(3, "a"))
		require.NoError(t, err)
		_, _, err = mgr.Replace(ctx, Spec{Name: "other", Dimension: 3}, records(3, "b"))
		require.NoError(t, err)

		_, err = store.LoadMeta(ctx, testCollection)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("without collection", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		_, err := mgr.Search(ctx, []float32{1, 0, 0}, 3)
		assert.ErrorIs(t, err, core.ErrCollectionNotFound)

		_, err = mgr.FetchAll(ctx)
		assert.ErrorIs(t, err, core.ErrCollectionNotFound)
	})

	mgr, _ := newTestManager(t)
	batch := []*core.EmbeddingRecord{
		{Id: 0, Vector: []float32{1.0, 0.0, 0.0}, Text: "alpha"},
		{Id: 1, Vector: []float32{0.7, 0.3, 0.0}, Text: "beta"},
		{Id: 2, Vector: []float32{0.3, 0.7, 0.0}, Text: "gamma"},
		{Id: 3, Vector: []float32{0.0, 0.0, 1.0}, Text: "delta"},
		{Id: 4, Vector: []float32{0.5, 0.5, 0.0}, Text: "epsilon"},
	}
	_, _, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 3}, batch)
	require.NoError(t, err)

	for _, k := range []int{1, 3, 5, 10} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			hits, err := mgr.Search(ctx, []float32{1, 0, 0}, k)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(hits), k)
			assert.Equal(t, "alpha", hits[0].Text)
			for i := 0; i < len(hits)-1; i++ {
				assert.GreaterOrEqual(t, hits[i].Score, hits[i+1].Score)
			}
		})
	}

	t.Run("wrong query dimension", func(t *testing.T) {
		_, err := mgr.Search(ctx, []float32{1, 0}, 3)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("non-positive k", func(t *testing.T) {
		_, err := mgr.Search(ctx, []float32{1, 0, 0}, 0)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})
}

func TestReplaceIsAtomicForReaders(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	small := records(2, "s0", "s1", "s2", "s3")
	large := records(6, "l0", "l1", "l2", "l3", "l4", "l5")
	_, _, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: 2}, small)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 16)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				texts, err := mgr.FetchAll(ctx)
				if err != nil {
					errs <- err
					return
				}
				if len(texts) != len(small) && len(texts) != len(large) {
					errs <- fmt.Errorf("observed partial collection of %d records", len(texts))
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		batch, dim := small, 2
		if i%2 == 0 {
			batch, dim = large, 6
		}
		_, _, err := mgr.Replace(ctx, Spec{Name: testCollection, Dimension: dim}, batch)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// failingStore injects write failures into an otherwise working store.
// With partialPut set, half of each batch is written before the failure.
type failingStore struct {
	storage.CollectionStore
	failPut    bool
	partialPut bool
}

func (f *failingStore) PutRecords(ctx context.Context, name string, generation uint64, records []*core.EmbeddingRecord) error {
	if f.partialPut {
		half := records[:len(records)/2]
		if err := f.CollectionStore.PutRecords(ctx, name, generation, half); err != nil {
			return err
		}
		return errors.New("flush failed midway")
	}
	if f.failPut {
		return errors.New("disk full")
	}
	return f.CollectionStore.PutRecords(ctx, name, generation, records)
}
