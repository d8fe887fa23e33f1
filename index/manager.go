package index

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/storage"
)

const maxNameLength = 255

// Spec describes the collection a rebuild creates.
type Spec struct {
	Name        string
	Dimension   int
	Metric      core.Metric
	Consistency core.Consistency
	// Source optionally fingerprints the transcript the collection is built from.
	Source core.Fingerprint
}

func (s *Spec) normalize() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if s.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", s.Dimension)
	}
	if s.Metric == 0 {
		s.Metric = core.MetricInnerProduct
	}
	if s.Metric != core.MetricInnerProduct && s.Metric != core.MetricCosine {
		return fmt.Errorf("%w: %s", storage.ErrUnsupportedMetric, s.Metric)
	}
	if s.Consistency == 0 {
		s.Consistency = core.ConsistencyStrong
	}
	return nil
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("collection name must be 1-%d characters", maxNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("collection name %q contains %q", name, r)
		}
	}
	return nil
}

// InsertReport counts the outcome of validating a batch.
type InsertReport struct {
	Total    int
	Inserted int
	Skipped  int
}

// Warning returns a data_integrity_warning when some records were skipped.
// The warning is informational; the batch itself succeeded.
func (r InsertReport) Warning() error {
	if r.Skipped == 0 {
		return nil
	}
	return core.NewError(core.KindDataIntegrityWarning, "insert",
		fmt.Errorf("%d embeddings were inserted out of %d total entries", r.Inserted, r.Total))
}

// Manager owns the active collection handle.
//
// Writers (RebuildCollection, InsertBatch, Replace) are serialized by writeMu.
// The active meta is swapped under mu, which readers hold for the duration
// of a read, so a reader always works against one complete generation.
type Manager struct {
	store   storage.CollectionStore
	writeMu sync.Mutex
	mu      sync.RWMutex
	active  *core.CollectionMeta
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets the logger. If nil, uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "index")
		return nil
	}
}

// NewManager creates a manager over store and restores the collection
// previously published under name, if any.
func NewManager(ctx context.Context, store storage.CollectionStore, name string, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if err := validateName(name); err != nil {
		return nil, core.NewError(core.KindInvalidArgument, "open", err)
	}

	m := &Manager{
		store:  store,
		logger: slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	meta, err := store.LoadMeta(ctx, name)
	switch {
	case err == nil:
		m.active = meta
		m.logger.Info("restored collection", "name", meta.Name, "dimension", meta.Dimension, "records", meta.Count)
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, core.Upstream("open", err)
	}
	return m, nil
}

// RebuildCollection destroys the active collection and publishes a fresh,
// empty one described by spec.
func (m *Manager) RebuildCollection(ctx context.Context, spec Spec) (*core.CollectionMeta, error) {
	if err := spec.normalize(); err != nil {
		return nil, core.NewError(core.KindInvalidArgument, "rebuild", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	meta, err := m.stage(ctx, spec, nil)
	if err != nil {
		return nil, err
	}
	m.publish(ctx, meta)
	return cloneMeta(meta), nil
}

// InsertBatch adds records to the active collection. Records whose vector
// length differs from the collection dimension are skipped and counted.
// The batch is written into a new generation holding the current records
// plus the batch, which replaces the active one only when complete; a
// failed write leaves the active collection exactly as it was. A record
// whose id already exists replaces it.
func (m *Manager) InsertBatch(ctx context.Context, records []*core.EmbeddingRecord) (InsertReport, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()
	if active == nil {
		return InsertReport{}, core.NewError(core.KindCollectionNotFound, "insert", nil)
	}

	valid, report := filterRecords(records, active.Dimension)
	if len(valid) == 0 {
		return report, core.NewError(core.KindNoValidRecords, "insert",
			fmt.Errorf("0 of %d records match dimension %d", report.Total, active.Dimension))
	}
	m.warnOnMismatch(report)

	merged, err := m.merge(ctx, active, valid)
	if err != nil {
		return report, core.Upstream("insert", err)
	}
	spec := Spec{
		Name:        active.Name,
		Dimension:   active.Dimension,
		Metric:      active.Metric,
		Consistency: active.Consistency,
		Source:      active.Source,
	}
	meta, err := m.stage(ctx, spec, merged)
	if err != nil {
		return report, err
	}
	m.publish(ctx, meta)
	return report, nil
}

// merge returns the active generation's records with batch applied on top,
// in id order.
func (m *Manager) merge(ctx context.Context, active *core.CollectionMeta, batch []*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	merged := make([]*core.EmbeddingRecord, 0, active.Count+len(batch))
	position := make(map[core.ID]int, active.Count+len(batch))
	err := m.store.ScanRecords(ctx, active.Name, active.Generation, func(record *core.EmbeddingRecord) error {
		position[record.Id] = len(merged)
		merged = append(merged, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, record := range batch {
		if i, ok := position[record.Id]; ok {
			merged[i] = record
			continue
		}
		position[record.Id] = len(merged)
		merged = append(merged, record)
	}
	slices.SortFunc(merged, func(a, b *core.EmbeddingRecord) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return merged, nil
}

// Replace rebuilds the collection and fills it with records as one critical
// section. The new generation is fully written before it becomes visible; on
// any failure the previously active collection is left untouched.
func (m *Manager) Replace(ctx context.Context, spec Spec, records []*core.EmbeddingRecord) (*core.CollectionMeta, InsertReport, error) {
	if err := spec.normalize(); err != nil {
		return nil, InsertReport{}, core.NewError(core.KindInvalidArgument, "rebuild", err)
	}

	valid, report := filterRecords(records, spec.Dimension)
	if len(valid) == 0 {
		return nil, report, core.NewError(core.KindNoValidRecords, "insert",
			fmt.Errorf("0 of %d records match dimension %d", report.Total, spec.Dimension))
	}
	m.warnOnMismatch(report)

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	meta, err := m.stage(ctx, spec, valid)
	if err != nil {
		return nil, report, err
	}
	m.publish(ctx, meta)
	return cloneMeta(meta), report, nil
}

// stage writes a complete new generation and its meta. On failure the
// staged records are removed and nothing is published.
func (m *Manager) stage(ctx context.Context, spec Spec, records []*core.EmbeddingRecord) (*core.CollectionMeta, error) {
	generation, err := m.store.NextGeneration(ctx)
	if err != nil {
		return nil, core.Upstream("rebuild", err)
	}
	meta := &core.CollectionMeta{
		Name:        spec.Name,
		Generation:  generation,
		Dimension:   spec.Dimension,
		Metric:      spec.Metric,
		Consistency: spec.Consistency,
		Count:       len(records),
		Source:      spec.Source,
		CreatedAt:   time.Now().UTC(),
	}

	if len(records) > 0 {
		if err := m.store.PutRecords(ctx, meta.Name, generation, records); err != nil {
			m.discard(meta.Name, generation)
			return nil, core.Upstream("insert", err)
		}
	}
	if err := m.store.SaveMeta(ctx, meta); err != nil {
		m.discard(meta.Name, generation)
		return nil, core.Upstream("rebuild", err)
	}
	return meta, nil
}

// publish swaps meta in as the active collection and drops its predecessor.
func (m *Manager) publish(ctx context.Context, meta *core.CollectionMeta) {
	m.mu.Lock()
	previous := m.active
	m.active = meta
	m.mu.Unlock()

	m.logger.Info("published collection",
		"name", meta.Name,
		"generation", meta.Generation,
		"dimension", meta.Dimension,
		"metric", meta.Metric,
		"consistency", meta.Consistency,
		"records", meta.Count)

	if previous == nil {
		return
	}
	if previous.Name != meta.Name {
		if err := m.store.DeleteMeta(ctx, previous.Name); err != nil {
			m.logger.Warn("failed to unpublish previous collection", "name", previous.Name, "err", err)
		}
	}
	m.discard(previous.Name, previous.Generation)
}

// discard drops a generation nobody can reach any more. Failures leave
// unreachable garbage, which is logged and otherwise ignored.
func (m *Manager) discard(name string, generation uint64) {
	if err := m.store.DropGeneration(context.Background(), name, generation); err != nil {
		m.logger.Warn("failed to drop generation", "name", name, "generation", generation, "err", err)
	}
}

func (m *Manager) warnOnMismatch(report InsertReport) {
	if report.Skipped == 0 {
		return
	}
	m.logger.Warn("data length mismatch",
		"kind", core.KindDataIntegrityWarning,
		"inserted", report.Inserted,
		"total", report.Total)
}

// Search returns up to k nearest records to vector, highest score first.
func (m *Manager) Search(ctx context.Context, vector []float32, k int) ([]*core.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return nil, core.NewError(core.KindCollectionNotFound, "search", nil)
	}
	if k <= 0 {
		return nil, core.NewError(core.KindInvalidArgument, "search", fmt.Errorf("k must be positive, got %d", k))
	}
	if len(vector) != m.active.Dimension {
		return nil, core.NewError(core.KindInvalidArgument, "search",
			fmt.Errorf("%w: query has %d dimensions, collection has %d",
				core.ErrDimensionMismatch, len(vector), m.active.Dimension))
	}

	hits, err := m.store.FindSimilar(ctx, m.active.Name, m.active.Generation, vector, m.active.Metric, k)
	if err != nil {
		return nil, core.Upstream("search", err)
	}
	return hits, nil
}

// FetchAll returns the text of every record in the active collection, in id order.
func (m *Manager) FetchAll(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return nil, core.NewError(core.KindCollectionNotFound, "fetch", nil)
	}

	texts := make([]string, 0, m.active.Count)
	err := m.store.ScanRecords(ctx, m.active.Name, m.active.Generation, func(record *core.EmbeddingRecord) error {
		texts = append(texts, record.Text)
		return nil
	})
	if err != nil {
		return nil, core.Upstream("fetch", err)
	}
	m.logger.Debug("retrieved records", "count", len(texts))
	return texts, nil
}

// Stats returns a copy of the active collection's meta.
func (m *Manager) Stats(ctx context.Context) (*core.CollectionMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return nil, core.NewError(core.KindCollectionNotFound, "stats", nil)
	}
	return cloneMeta(m.active), nil
}

func filterRecords(records []*core.EmbeddingRecord, dimension int) ([]*core.EmbeddingRecord, InsertReport) {
	valid := make([]*core.EmbeddingRecord, 0, len(records))
	for _, record := range records {
		if record.HasDimension(dimension) {
			valid = append(valid, record)
		}
	}
	return valid, InsertReport{
		Total:    len(records),
		Inserted: len(valid),
		Skipped:  len(records) - len(valid),
	}
}

func cloneMeta(meta *core.CollectionMeta) *core.CollectionMeta {
	c := *meta
	return &c
}
