package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/storage"
)

// CollectionStore implements storage.CollectionStore on BadgerDB.
type CollectionStore struct {
	backend *Backend
	genSeq  *badger.Sequence
	logger  *slog.Logger
}

var _ storage.CollectionStore = (*CollectionStore)(nil)

// newCollectionStore is an internal constructor that returns the concrete type.
func newCollectionStore(backend *Backend) (*CollectionStore, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	seq, err := backend.GetSequence(generationSeq)
	if err != nil {
		return nil, err
	}
	return &CollectionStore{
		backend: backend,
		genSeq:  seq,
		logger:  slog.Default().With("component", "badger-collections"),
	}, nil
}

// NewCollectionStore creates a collection store on an open backend.
//
// Returns storage.CollectionStore interface to enforce abstraction.
func NewCollectionStore(backend *Backend) (storage.CollectionStore, error) {
	return newCollectionStore(backend)
}

func (s *CollectionStore) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// NextGeneration allocates a fresh generation number. Numbering starts at 1.
func (s *CollectionStore) NextGeneration(ctx context.Context) (uint64, error) {
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}
	n, err := s.genSeq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// LoadMeta returns the published meta for name.
func (s *CollectionStore) LoadMeta(ctx context.Context, name string) (*core.CollectionMeta, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var meta *core.CollectionMeta
	err := s.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetaKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			meta, err = storage.UnmarshalCollectionMeta(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveMeta publishes meta.
func (s *CollectionStore) SaveMeta(ctx context.Context, meta *core.CollectionMeta) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeMetaKey(meta.Name), storage.MarshalCollectionMeta(meta))
	})
}

// DeleteMeta removes the published pointer for name.
func (s *CollectionStore) DeleteMeta(ctx context.Context, name string) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		return tx.Delete(makeMetaKey(name))
	})
}

// PutRecords bulk-loads records with a write batch. The generation is not
// published by this call, so partial visibility during the load is harmless.
func (s *CollectionStore) PutRecords(ctx context.Context, name string, generation uint64, records []*core.EmbeddingRecord) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	wb := s.backend.NewWriteBatch()
	defer wb.Cancel()

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set(makeRecordKey(name, generation, record.Id), storage.MarshalEmbeddingRecord(record)); err != nil {
			return fmt.Errorf("failed to stage record %d: %w", record.Id, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}

	s.logger.Debug("stored records", "collection", name, "generation", generation, "count", len(records))
	return nil
}

// ScanRecords iterates a generation in ascending Id order.
func (s *CollectionStore) ScanRecords(ctx context.Context, name string, generation uint64, fn func(*core.EmbeddingRecord) error) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(name, generation)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindSimilar performs a brute-force scan of the generation.
func (s *CollectionStore) FindSimilar(ctx context.Context, name string, generation uint64, vector []float32, metric core.Metric, limit int) ([]*core.SearchHit, error) {
	ranker, err := storage.NewRanker(metric, vector, len(vector), limit)
	if err != nil {
		return nil, err
	}
	err = s.ScanRecords(ctx, name, generation, func(record *core.EmbeddingRecord) error {
		ranker.Add(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranker.Top(limit), nil
}

// DropGeneration deletes every record of a generation.
func (s *CollectionStore) DropGeneration(ctx context.Context, name string, generation uint64) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	var keys [][]byte
	err := s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(name, generation)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.backend.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("failed to drop generation %d of %s: %w", generation, name, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to drop generation %d of %s: %w", generation, name, err)
	}
	s.logger.Debug("dropped generation", "collection", name, "generation", generation, "records", len(keys))
	return nil
}

// Close releases the generation sequence. The backend stays open.
func (s *CollectionStore) Close() error {
	return s.genSeq.Release()
}
