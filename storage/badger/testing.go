package badger

import "github.com/poiesic/lectern/storage"

// NewMemoryCollectionStore opens an in-memory backend and a collection store on it.
// Closing the store does not close the backend; callers close both.
func NewMemoryCollectionStore() (storage.CollectionStore, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	store, err := NewCollectionStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return store, backend, nil
}
