// Package bolt implements storage.CollectionStore on a single bbolt file.
//
// Layout:
//
//	meta/<name>                          -> MUS-encoded core.CollectionMeta
//	records/<name>/<generation>/<id>     -> MUS-encoded core.EmbeddingRecord
//
// Generation and record keys are big-endian so cursor order is numeric order.
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/storage"
	"go.etcd.io/bbolt"
)

var (
	metaBucket    = []byte("meta")
	recordsBucket = []byte("records")
)

// Store implements storage.CollectionStore.
type Store struct {
	db     *bbolt.DB
	logger *slog.Logger
}

var _ storage.CollectionStore = (*Store)(nil)

// Open opens (or creates) the bolt file at path.
//
// Returns storage.CollectionStore interface to enforce abstraction.
func Open(path string) (storage.CollectionStore, error) {
	return open(path)
}

func open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(metaBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "bolt-collections"),
	}, nil
}

func u64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// generationBucket returns the bucket for (name, generation), or nil when absent.
func generationBucket(tx *bbolt.Tx, name string, generation uint64) *bbolt.Bucket {
	byName := tx.Bucket(recordsBucket).Bucket([]byte(name))
	if byName == nil {
		return nil
	}
	return byName.Bucket(u64(generation))
}

func (s *Store) NextGeneration(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var gen uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		gen, err = tx.Bucket(metaBucket).NextSequence()
		return err
	})
	return gen, err
}

func (s *Store) LoadMeta(ctx context.Context, name string) (*core.CollectionMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var meta *core.CollectionMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(metaBucket).Get([]byte(name))
		if val == nil {
			return storage.ErrNotFound
		}
		var err error
		meta, err = storage.UnmarshalCollectionMeta(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *Store) SaveMeta(ctx context.Context, meta *core.CollectionMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(meta.Name), storage.MarshalCollectionMeta(meta))
	})
}

func (s *Store) DeleteMeta(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Delete([]byte(name))
	})
}

// PutRecords writes all records in one bolt transaction.
func (s *Store) PutRecords(ctx context.Context, name string, generation uint64, records []*core.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		byName, err := tx.Bucket(recordsBucket).CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		gen, err := byName.CreateBucketIfNotExists(u64(generation))
		if err != nil {
			return err
		}
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := gen.Put(u64(uint64(record.Id)), storage.MarshalEmbeddingRecord(record)); err != nil {
				return fmt.Errorf("failed to store record %d: %w", record.Id, err)
			}
		}
		return nil
	})
}

func (s *Store) ScanRecords(ctx context.Context, name string, generation uint64, fn func(*core.EmbeddingRecord) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		gen := generationBucket(tx, name, generation)
		if gen == nil {
			return nil
		}
		c := gen.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := storage.UnmarshalEmbeddingRecord(v)
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

func (s *Store) FindSimilar(ctx context.Context, name string, generation uint64, vector []float32, metric core.Metric, limit int) ([]*core.SearchHit, error) {
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

func (s *Store) DropGeneration(ctx context.Context, name string, generation uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		byName := tx.Bucket(recordsBucket).Bucket([]byte(name))
		if byName == nil {
			return nil
		}
		err := byName.DeleteBucket(u64(generation))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to drop generation %d of %s: %w", generation, name, err)
	}
	s.logger.Debug("dropped generation", "collection", name, "generation", generation)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
