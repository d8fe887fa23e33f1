package ingestion

import "github.com/poiesic/lectern/core"

// Monitor provides hooks to observe an indexing run.
// Implement this interface to report progress, e.g. with a progress bar.
// EmbeddedBatch may be called concurrently from pool workers.
type Monitor interface {
	Start(segments int)
	AfterProbe(dimension int)
	EmbeddedBatch(size int)
	AfterInsert(meta core.CollectionMeta, skipped int)
	Finish(chapters []string)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ int)                              {}
func (n *noopMonitor) AfterProbe(_ int)                         {}
func (n *noopMonitor) EmbeddedBatch(_ int)                      {}
func (n *noopMonitor) AfterInsert(_ core.CollectionMeta, _ int) {}
func (n *noopMonitor) Finish(_ []string)                        {}
