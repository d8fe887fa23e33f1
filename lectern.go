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

// Package lectern turns spoken-word transcripts into a searchable index,
// chapters, grounded answers and flashcards.
//
// Engine wires the packages together around one owned vector store:
//
//	engine, err := lectern.NewEngine(lectern.WithConfig(cfg))
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	indexed, err := engine.Index(ctx, segments)
//	answer, err := engine.Query(ctx, "What is the lecture about?")
//	cards, err := engine.GenerateFlashcards(ctx, indexed.Chapters)
package lectern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/ai/assemblyai"
	"github.com/poiesic/lectern/ai/openai"
	"github.com/poiesic/lectern/chapter"
	"github.com/poiesic/lectern/config"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/flashcard"
	"github.com/poiesic/lectern/index"
	"github.com/poiesic/lectern/ingestion"
	"github.com/poiesic/lectern/rag"
	"github.com/poiesic/lectern/storage"
	"github.com/poiesic/lectern/storage/badger"
	"github.com/poiesic/lectern/storage/bolt"
)

// BoltFileName is the database file created inside the store path by the bolt driver.
const BoltFileName = "lectern.db"

var (
	// ErrNoTranscriber is returned by Transcribe when no transcription service is configured.
	ErrNoTranscriber = errors.New("no transcriber configured")

	// ErrBoltInMemory is returned when an in-memory bolt store is requested.
	ErrBoltInMemory = errors.New("bolt store has no in-memory mode")
)

// Engine is the boundary of the transcript pipeline.
type Engine struct {
	cfg         *config.Config
	backend     *badger.Backend
	store       storage.CollectionStore
	manager     *index.Manager
	provider    ai.AIProvider
	transcriber ai.Transcriber
	pipeline    *ingestion.Pipeline
	chapters    chapter.Strategy
	query       *rag.Engine
	summarizer  *rag.Summarizer
	extractor   *flashcard.Extractor
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	cfg         *config.Config
	aiConfig    *ai.Config
	provider    ai.AIProvider
	transcriber ai.Transcriber
	monitor     ingestion.Monitor
	logger      *slog.Logger
}

// WithConfig sets the configuration. Default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *engineOptions) {
		o.cfg = cfg
	}
}

// WithAIConfig overrides the ai section of the configuration.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider supplies the embedding and generation provider instead of
// building one from configuration. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithTranscriber supplies the transcription service.
func WithTranscriber(transcriber ai.Transcriber) Option {
	return func(o *engineOptions) {
		o.transcriber = transcriber
	}
}

// WithMonitor observes indexing progress.
func WithMonitor(monitor ingestion.Monitor) Option {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the configured store, restores any published collection
// and builds the pipeline components.
func NewEngine(opts ...Option) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	cfg := options.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:         cfg,
		provider:    options.provider,
		transcriber: options.transcriber,
		logger:      logger,
	}
	if err := e.open(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(options *engineOptions) error {
	ctx := context.Background()
	cfg := e.cfg

	if err := e.openStore(); err != nil {
		return err
	}

	manager, err := index.NewManager(ctx, e.store, cfg.Store.Collection, index.WithLogger(e.logger))
	if err != nil {
		return err
	}
	e.manager = manager

	if e.provider == nil {
		aiConfig := options.aiConfig
		if aiConfig == nil {
			aiConfig = cfg.ToAIConfig()
		}
		e.provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			return err
		}
	}
	if e.transcriber == nil && cfg.AssemblyAI.APIKey != "" {
		e.transcriber, err = assemblyai.NewTranscriber(cfg.AssemblyAI.APIKey,
			assemblyai.WithLanguageCode(cfg.AssemblyAI.LanguageCode))
		if err != nil {
			return err
		}
	}

	embedder := e.provider.Embedder()
	generator := e.provider.Generator()

	indexStrategy, err := e.strategy(embedder, cfg.Chapters.IndexMaxChapters)
	if err != nil {
		return err
	}
	e.chapters, err = e.strategy(embedder, cfg.Chapters.MaxChapters)
	if err != nil {
		return err
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithBatchSize(cfg.Workers.BatchSize),
		ingestion.WithRetryPolicy(cfg.RetryPolicy()),
		ingestion.WithMetric(cfg.Store.MetricValue()),
		ingestion.WithLogger(e.logger),
	}
	if cfg.Workers.Embedding > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.Workers.Embedding))
	}
	if options.monitor != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithMonitor(options.monitor))
	}
	e.pipeline, err = ingestion.NewPipeline(manager, embedder, indexStrategy, cfg.Store.Collection, pipelineOpts...)
	if err != nil {
		return err
	}

	e.query, err = rag.NewEngine(embedder, generator, manager,
		rag.WithTopK(cfg.Query.TopK), rag.WithLogger(e.logger))
	if err != nil {
		return err
	}
	e.summarizer, err = rag.NewSummarizer(generator)
	if err != nil {
		return err
	}

	extractorOpts := []flashcard.Option{flashcard.WithLogger(e.logger)}
	if cfg.Workers.Extraction > 0 {
		extractorOpts = append(extractorOpts, flashcard.WithPoolSize(cfg.Workers.Extraction))
	}
	e.extractor, err = flashcard.NewExtractor(generator, extractorOpts...)
	return err
}

func (e *Engine) openStore() error {
	store := e.cfg.Store
	switch store.Driver {
	case "bolt":
		if store.InMemory {
			return ErrBoltInMemory
		}
		s, err := bolt.Open(filepath.Join(store.Path, BoltFileName))
		if err != nil {
			return err
		}
		e.store = s
	case "badger", "":
		backend, err := badger.OpenBackend(store.Path, store.InMemory)
		if err != nil {
			return err
		}
		e.backend = backend
		s, err := badger.NewCollectionStore(backend)
		if err != nil {
			return err
		}
		e.store = s
	default:
		return fmt.Errorf("unknown store driver %q", store.Driver)
	}
	e.logger.Info("opened store", "driver", store.Driver, "path", store.Path, "in_memory", store.InMemory)
	return nil
}

func (e *Engine) strategy(embedder ai.Embedder, maxChapters int) (chapter.Strategy, error) {
	c := e.cfg.Chapters
	if c.Strategy == "semantic" {
		return chapter.NewSemantic(embedder, chapter.WithSeed(c.Seed), chapter.WithInits(c.Inits))
	}
	return chapter.NewUniform(c.MinChapters, maxChapters, c.ScalingFactor)
}

// Index replaces the collection with segments and returns the chapters
// derived from it. A non-nil Warning on the result reports skipped segments.
func (e *Engine) Index(ctx context.Context, segments []core.TranscriptSegment) (*ingestion.Result, error) {
	return e.pipeline.Index(ctx, segments)
}

// Query answers text from the indexed transcript.
func (e *Engine) Query(ctx context.Context, text string) (*core.QueryResult, error) {
	return e.query.Answer(ctx, text)
}

// Chapters re-partitions the indexed transcript with the configured
// strategy and chapters.max_chapters.
func (e *Engine) Chapters(ctx context.Context) ([]string, error) {
	texts, err := e.manager.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return e.chapters.Chapters(ctx, texts)
}

// GenerateFlashcards extracts at most one flashcard per chapter.
func (e *Engine) GenerateFlashcards(ctx context.Context, chapters []string) (*flashcard.Result, error) {
	return e.extractor.ExtractAll(ctx, chapters)
}

// Summarize writes a long-form summary of text.
func (e *Engine) Summarize(ctx context.Context, text string) (string, error) {
	return e.summarizer.Summarize(ctx, text)
}

// Transcribe converts the audio at audioURL into segments.
func (e *Engine) Transcribe(ctx context.Context, audioURL string) ([]core.TranscriptSegment, error) {
	if e.transcriber == nil {
		return nil, core.NewError(core.KindTranscriptionFailed, "transcribe", ErrNoTranscriber)
	}
	if audioURL == "" {
		return nil, core.NewError(core.KindInvalidArgument, "transcribe", errors.New("audio URL is empty"))
	}
	return e.transcriber.Transcribe(ctx, audioURL)
}

// Stats describes the active collection.
func (e *Engine) Stats(ctx context.Context) (*core.CollectionMeta, error) {
	return e.manager.Stats(ctx)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Close releases the worker pools, the provider and the store.
func (e *Engine) Close() error {
	if e.pipeline != nil {
		e.pipeline.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}

	var errs []error
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("error closing collection store", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
