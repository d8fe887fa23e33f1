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


// Package flashcard turns chapter text into validated question/answer pairs.
//
// The generator is asked for a single JSON object. Its output is untrusted:
// the first balanced object is located with a brace-depth scanner, parsed
// (repairing unquoted keys if needed), and validated. A chapter whose output
// fails any step yields no flashcard and never aborts the batch.
package flashcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
)

var (
	// ErrNoObject indicates generation output without a balanced {...} object.
	ErrNoObject = errors.New("no JSON object in generation output")

	// ErrMissingField indicates a parsed object without a Question or Answer string.
	ErrMissingField = errors.New("flashcard field missing or not a string")

	// ErrGeneratorRequired is returned when no generator is provided.
	ErrGeneratorRequired = errors.New("generator required")
)

// Result holds one flashcard per chapter that extracted cleanly, in chapter order.
type Result struct {
	Flashcards []core.Flashcard
	Skipped    int
}

// Extractor generates and validates flashcards.
type Extractor struct {
	generator ai.Generator
	poolSize  int
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithPoolSize sets how many chapters are extracted concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Extractor) error {
		e.poolSize = max(size, 1)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "flashcards")
		return nil
	}
}

// NewExtractor creates an extractor. The generator is wrapped so reasoning
// blocks are stripped before the output is scanned.
func NewExtractor(generator ai.Generator, opts ...Option) (*Extractor, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	e := &Extractor{
		generator: ai.NewSanitizingGenerator(generator),
		poolSize:  max(runtime.NumCPU()/2, 1),
		logger:    slog.Default().With("component", "flashcards"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Extract produces one flashcard for chapter. Every per-chapter failure is an
// extraction_skipped error. An expired deadline surfaces as upstream_timeout
// and a canceled context as context.Canceled.
func (e *Extractor) Extract(ctx context.Context, chapter string) (*core.Flashcard, error) {
	if strings.TrimSpace(chapter) == "" {
		return nil, skipped(errors.New("chapter is empty"))
	}

	raw, err := e.generator.Generate(ctx, BuildPrompt(chapter), "")
	if err != nil {
		switch ctxErr := ctx.Err(); {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			return nil, core.NewError(core.KindUpstreamTimeout, "flashcard", ctxErr)
		case ctxErr != nil:
			return nil, fmt.Errorf("flashcard: %w", ctxErr)
		}
		return nil, skipped(fmt.Errorf("failed to generate flashcard: %w", err))
	}

	card, err := Parse(raw)
	if err != nil {
		return nil, skipped(err)
	}
	return card, nil
}

// Parse extracts and validates the first flashcard object in raw.
func Parse(raw string) (*core.Flashcard, error) {
	obj, ok := FirstObject(raw)
	if !ok {
		return nil, ErrNoObject
	}

	fields, err := decodeObject(obj)
	if err != nil {
		return nil, err
	}

	card := &core.Flashcard{}
	targets := []struct {
		key string
		dst *string
	}{
		{"Question", &card.Question},
		{"Answer", &card.Answer},
	}
	for _, target := range targets {
		value, present := fields[target.key]
		if !present {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, target.key)
		}
		if err := json.Unmarshal(value, target.dst); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, target.key)
		}
	}

	card.Question = strings.TrimSpace(card.Question)
	card.Answer = strings.TrimSpace(card.Answer)
	if err := core.ValidateFlashcard(card); err != nil {
		return nil, err
	}
	return card, nil
}

func decodeObject(obj string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(obj), &fields)
	if err == nil {
		return fields, nil
	}
	if repairErr := json.Unmarshal([]byte(repairJSON(obj)), &fields); repairErr == nil {
		return fields, nil
	}
	return nil, fmt.Errorf("failed to parse flashcard object: %w", err)
}

// ExtractAll extracts a flashcard from every chapter over a bounded worker
// pool. Chapters that fail are counted in Skipped. An ended context aborts
// the whole batch.
func (e *Extractor) ExtractAll(ctx context.Context, chapters []string) (*Result, error) {
	if len(chapters) == 0 {
		return &Result{Flashcards: []core.Flashcard{}}, nil
	}

	pool, err := ants.NewPool(min(e.poolSize, len(chapters)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	cards := make([]*core.Flashcard, len(chapters))
	errs := make([]error, len(chapters))
	var wg sync.WaitGroup
	for i, chapter := range chapters {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			cards[i], errs[i] = e.Extract(ctx, chapter)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = skipped(submitErr)
		}
	}
	wg.Wait()

	result := &Result{Flashcards: make([]core.Flashcard, 0, len(chapters))}
	for i, card := range cards {
		if err := errs[i]; err != nil {
			if !errors.Is(err, core.ErrExtractionSkipped) {
				return nil, err
			}
			e.logger.Warn("skipping chapter", "chapter", i, "err", err)
			result.Skipped++
			continue
		}
		result.Flashcards = append(result.Flashcards, *card)
	}

	e.logger.Info("generated flashcards", "chapters", len(chapters), "flashcards", len(result.Flashcards), "skipped", result.Skipped)
	return result, nil
}

func skipped(err error) error {
	return core.NewError(core.KindExtractionSkipped, "flashcard", err)
}
