package storage

import (
	"context"

	"github.com/poiesic/lectern/core"
)

// CollectionStore persists named collections as numbered generations.
//
// A generation is an immutable-once-published set of embedding records.
// The meta record for a name points at the published generation; records
// of other generations are staging or garbage and are never read through
// the meta pointer.
type CollectionStore interface {
	// NextGeneration allocates a generation number that has never been used.
	NextGeneration(ctx context.Context) (uint64, error)

	// LoadMeta returns the published meta for name.
	// Returns ErrNotFound if no collection has been published under name.
	LoadMeta(ctx context.Context, name string) (*core.CollectionMeta, error)

	// SaveMeta publishes meta as the active generation for meta.Name.
	SaveMeta(ctx context.Context, meta *core.CollectionMeta) error

	// DeleteMeta removes the published pointer for name. Missing names are not an error.
	DeleteMeta(ctx context.Context, name string) error

	// PutRecords writes records into a generation. Records are keyed by Id;
	// writing an existing Id replaces it.
	PutRecords(ctx context.Context, name string, generation uint64, records []*core.EmbeddingRecord) error

	// ScanRecords calls fn for every record of a generation in ascending Id order.
	// Iteration stops at the first error returned by fn.
	ScanRecords(ctx context.Context, name string, generation uint64, fn func(*core.EmbeddingRecord) error) error

	// FindSimilar ranks the records of a generation against vector and returns
	// at most limit hits, highest score first.
	FindSimilar(ctx context.Context, name string, generation uint64, vector []float32, metric core.Metric, limit int) ([]*core.SearchHit, error)

	// DropGeneration deletes every record of a generation.
	DropGeneration(ctx context.Context, name string, generation uint64) error

	// Close releases the store.
	Close() error
}
