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


// Package index manages the lifecycle of the vector collection that backs
// retrieval.
//
// A Manager owns exactly one active collection. Rebuilding is destructive:
// the previous collection is dropped once its replacement has been fully
// written and published. Readers (Search, FetchAll, Stats) always observe a
// complete generation with a single dimension.
//
// Example:
//
//	mgr, err := index.NewManager(ctx, store, "my_rag_collection")
//	meta, report, err := mgr.Replace(ctx, index.Spec{
//	    Name:      "my_rag_collection",
//	    Dimension: 1024,
//	}, records)
//	hits, err := mgr.Search(ctx, queryVector, 3)
//
// The manager never retries store failures; callers decide on retry policy.
package index
