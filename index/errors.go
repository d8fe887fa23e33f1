package index

import "errors"

var (
	// ErrStoreRequired indicates that a collection store was not provided.
	ErrStoreRequired = errors.New("collection store is required")
)
