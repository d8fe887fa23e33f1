// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for lectern.
//
// This package defines the CollectionStore interface that decouples the vector
// index lifecycle from the embedded database holding it. BadgerDB (storage/badger)
// and bbolt (storage/bolt) implementations can be used interchangeably.
//
// # Generations
//
// A named collection is stored as numbered generations. Writers fill a fresh
// generation and then publish it by saving the collection meta; the previous
// generation is dropped afterwards. Readers only ever follow the published meta,
// so they never see a generation that is still being filled.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.CollectionStore interface:
//
//	store, err := badger.NewCollectionStore(backend)
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Serialization
//
// Records and metas are encoded in MUS format (github.com/mus-format/mus-go)
// via MarshalEmbeddingRecord and MarshalCollectionMeta.
//
// # Thread Safety
//
// All store implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
