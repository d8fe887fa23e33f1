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


// Package ingestion indexes a transcript end to end.
//
// Pipeline.Index validates the transcript, probes the embedding dimension,
// embeds every segment over a worker pool, replaces the active collection in
// one critical section, and re-derives chapters from the rebuilt index.
//
// Embedding calls are retried with exponential backoff; vector store calls
// are not. Any whole-run failure leaves the previous collection in place.
package ingestion
