package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/ingestion"
	"github.com/schollz/progressbar/v3"
)

// progressMonitor renders indexing progress on a terminal.
type progressMonitor struct {
	out io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

var _ ingestion.Monitor = (*progressMonitor)(nil)

func newProgressMonitor(out io.Writer) *progressMonitor {
	return &progressMonitor{out: out}
}

func (m *progressMonitor) Start(segments int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bar = progressbar.NewOptions(segments,
		progressbar.OptionSetWriter(m.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Creating embeddings[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(m.out)
		}),
	)
}

func (m *progressMonitor) AfterProbe(dimension int) {
	fmt.Fprintf(m.out, "Embedding dimension: %d\n", dimension)
}

func (m *progressMonitor) EmbeddedBatch(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bar != nil {
		m.bar.Add(size)
	}
}

func (m *progressMonitor) AfterInsert(meta core.CollectionMeta, skipped int) {
	m.mu.Lock()
	if m.bar != nil {
		m.bar.Finish()
	}
	m.mu.Unlock()

	if skipped > 0 {
		fmt.Fprintf(m.out, "Warning: Data length mismatch! %d embeddings were inserted out of %d total entries.\n",
			meta.Count, meta.Count+skipped)
	}
	fmt.Fprintf(m.out, "Collection %s created with %d records (dimension %d, %s).\n",
		meta.Name, meta.Count, meta.Dimension, meta.Metric)
}

func (m *progressMonitor) Finish(chapters []string) {
	fmt.Fprintf(m.out, "Generated %d chapters.\n", len(chapters))
}
