package ingestion

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/chapter"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/index"
)

// DefaultBatchSize is the number of segments sent per embedding call.
const DefaultBatchSize = 32

// Result describes a completed indexing run.
type Result struct {
	Chapters []string
	Meta     *core.CollectionMeta
	Inserted int
	Skipped  int
	// Warning is a data_integrity_warning when some segments were dropped.
	Warning error
}

// Pipeline orchestrates indexing of transcript segments.
type Pipeline struct {
	manager    *index.Manager
	embedder   ai.Embedder
	strategy   chapter.Strategy
	collection string
	metric     core.Metric
	pool       *ants.Pool
	batchSize  int
	retry      ai.RetryPolicy
	monitor    Monitor
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many segments go into one embedding call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		p.batchSize = max(size, 1)
		return nil
	}
}

// WithRetryPolicy sets the retry policy for embedding calls.
func WithRetryPolicy(policy ai.RetryPolicy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return ai.ErrInvalidMaxAttempts
		}
		p.retry = policy
		return nil
	}
}

// WithMetric sets the similarity metric of rebuilt collections.
func WithMetric(metric core.Metric) Option {
	return func(p *Pipeline) error {
		p.metric = metric
		return nil
	}
}

// WithMonitor sets a progress monitor.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an indexing pipeline writing to collection through manager.
func NewPipeline(
	manager *index.Manager,
	embedder ai.Embedder,
	strategy chapter.Strategy,
	collection string,
	opts ...Option,
) (*Pipeline, error) {
	if manager == nil {
		return nil, ErrManagerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if strategy == nil {
		return nil, ErrStrategyRequired
	}
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	p := &Pipeline{
		manager:    manager,
		embedder:   embedder,
		strategy:   strategy,
		collection: collection,
		metric:     core.MetricInnerProduct,
		batchSize:  DefaultBatchSize,
		retry:      ai.DefaultRetryPolicy(),
		monitor:    &noopMonitor{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// Index rebuilds the collection from segments and returns the chapters
// derived from the rebuilt index. Record ids equal segment positions.
func (p *Pipeline) Index(ctx context.Context, segments []core.TranscriptSegment) (*Result, error) {
	if err := core.ValidateTranscript(segments); err != nil {
		return nil, core.NewError(core.KindInvalidArgument, "index", err)
	}
	p.monitor.Start(len(segments))

	embedder := ai.NewRetryingEmbedder(p.embedder, p.retry)
	dimension, err := ai.ProbeDimension(ctx, embedder)
	if err != nil {
		return nil, err
	}
	p.logger.Info("probed embedding dimension", "dimension", dimension)
	p.monitor.AfterProbe(dimension)

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	proc := &embeddingProcessor{
		embedder:  embedder,
		pool:      p.pool,
		batchSize: p.batchSize,
		monitor:   p.monitor,
		logger:    p.logger.With("processor", "embeddings"),
	}
	vectors, err := proc.process(ctx, texts)
	if err != nil {
		return nil, err
	}

	records := make([]*core.EmbeddingRecord, len(segments))
	for i, seg := range segments {
		records[i] = &core.EmbeddingRecord{
			Id:        core.ID(i),
			Vector:    vectors[i],
			Text:      seg.Text,
			Timestamp: seg.Timestamp,
		}
	}

	spec := index.Spec{
		Name:        p.collection,
		Dimension:   dimension,
		Metric:      p.metric,
		Consistency: core.ConsistencyStrong,
		Source:      core.FingerprintSegments(segments),
	}
	meta, report, err := p.manager.Replace(ctx, spec, records)
	if err != nil {
		return nil, err
	}
	p.monitor.AfterInsert(*meta, report.Skipped)

	corpus, err := p.manager.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	chapters, err := p.strategy.Chapters(ctx, corpus)
	if err != nil {
		return nil, err
	}
	if chapters == nil {
		chapters = []string{}
	}
	p.monitor.Finish(chapters)

	p.logger.Info("indexed transcript",
		"collection", meta.Name,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"chapters", len(chapters))

	return &Result{
		Chapters: chapters,
		Meta:     meta,
		Inserted: report.Inserted,
		Skipped:  report.Skipped,
		Warning:  report.Warning(),
	}, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
