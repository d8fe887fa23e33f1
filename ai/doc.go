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


// Package ai provides abstractions for the model services used by Lectern.
//
// The package defines the contracts the pipeline depends on:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces free text from a prompt and optional system message
//   - Transcriber: Turns an audio URL into timestamped transcript segments
//   - AIProvider: Aggregates the embedder and generator for lifecycle management
//
// It also carries the small behaviors shared by every implementation:
// ProbeDimension discovers the embedding width, NewSanitizingGenerator strips
// <think> reasoning blocks before output is parsed, and Retry wraps transient
// upstream failures in exponential backoff.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding and chat APIs via langchaingo
//   - ai/assemblyai: Speech-to-text via the AssemblyAI API
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types so tests can inject behavior and assert call counts.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//	mockEmbed := mock.NewMockEmbedder()          // returns *mock.MockEmbedder
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	dim, err := ai.ProbeDimension(ctx, provider.Embedder())
//	answer, err := provider.Generator().Generate(ctx, "What is RAG?", "")
package ai
