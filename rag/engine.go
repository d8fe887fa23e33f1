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


// Package rag answers questions against the indexed transcript.
//
// Engine embeds the question, retrieves the closest segments, and asks the
// generator to answer strictly from that context. Summarizer produces a
// structured summary of a whole transcript.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
)

// DefaultTopK is the number of segments retrieved per question.
const DefaultTopK = 3

// Searcher finds the records nearest a query vector. index.Manager implements it.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]*core.SearchHit, error)
}

// Engine answers questions with retrieval-augmented generation.
type Engine struct {
	embedder  ai.Embedder
	generator ai.Generator
	searcher  Searcher
	topK      int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets how many segments are retrieved per question.
func WithTopK(k int) Option {
	return func(e *Engine) error {
		if k <= 0 {
			return fmt.Errorf("top k must be positive, got %d", k)
		}
		e.topK = k
		return nil
	}
}

// WithLogger sets the logger. If nil, uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "rag")
		return nil
	}
}

// NewEngine creates a query engine. The generator is wrapped so reasoning
// blocks are always stripped from answers.
func NewEngine(embedder ai.Embedder, generator ai.Generator, searcher Searcher, opts ...Option) (*Engine, error) {
	if embedder == nil || generator == nil || searcher == nil {
		return nil, errors.New("rag: embedder, generator and searcher are required")
	}
	e := &Engine{
		embedder:  embedder,
		generator: ai.NewSanitizingGenerator(generator),
		searcher:  searcher,
		topK:      DefaultTopK,
		logger:    slog.Default().With("component", "rag"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Answer retrieves context for query and generates a grounded answer.
// Every failure before a usable answer exists is reported as query_failed,
// except a missing collection and an expired deadline, which keep their kinds.
func (e *Engine) Answer(ctx context.Context, query string) (*core.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.NewError(core.KindInvalidArgument, "query", errors.New("query is empty"))
	}

	vector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, queryError(fmt.Errorf("failed to embed query: %w", err))
	}

	hits, err := e.searcher.Search(ctx, vector, e.topK)
	if err != nil {
		return nil, queryError(fmt.Errorf("failed to search collection: %w", err))
	}

	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}
	e.logger.Debug("retrieved context", "hits", len(hits), "k", e.topK)

	raw, err := e.generator.Generate(ctx, BuildQueryPrompt(BuildContext(texts), query), QuerySystemPrompt)
	if err != nil {
		return nil, queryError(fmt.Errorf("failed to generate answer: %w", err))
	}

	answer := strings.TrimSpace(raw)
	if answer == "" {
		e.logger.Warn("generation was empty, using fallback answer")
		answer = FallbackAnswer
	}
	return &core.QueryResult{RetrievedTexts: texts, Answer: answer}, nil
}

func queryError(err error) error {
	switch {
	case errors.Is(err, core.ErrCollectionNotFound):
		return core.NewError(core.KindCollectionNotFound, "query", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, core.ErrUpstreamTimeout):
		return core.NewError(core.KindUpstreamTimeout, "query", err)
	default:
		return core.NewError(core.KindQueryFailed, "query", err)
	}
}
