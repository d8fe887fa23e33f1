package ingestion

import "errors"

var (
	// ErrManagerRequired is returned when an index manager is not provided.
	ErrManagerRequired = errors.New("index manager required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStrategyRequired is returned when a chaptering strategy is not provided.
	ErrStrategyRequired = errors.New("chapter strategy required")

	// ErrInvalidCollection is returned when the collection name is empty.
	ErrInvalidCollection = errors.New("collection name required")
)
