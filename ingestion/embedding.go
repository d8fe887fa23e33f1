package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
)

// embeddingProcessor embeds segment texts in batches over a worker pool.
type embeddingProcessor struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	monitor   Monitor
	logger    *slog.Logger
}

// process returns one vector per text, aligned with texts by index.
// The first failing batch aborts the run.
func (ep *embeddingProcessor) process(ctx context.Context, texts []string) ([][]float32, error) {
	ep.logger.Info("processing segments for embeddings", "segments", len(texts), "batchSize", ep.batchSize)

	vectors := make([][]float32, len(texts))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(texts); start += ep.batchSize {
		end := min(start+ep.batchSize, len(texts))
		wg.Add(1)
		err := ep.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			batch, err := ep.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				ep.logger.Error("error generating embeddings", "start", start, "end", end, "err", err)
				fail(err)
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("embedding result mismatch. expected %d, received %d", end-start, len(batch)))
				return
			}
			copy(vectors[start:end], batch)
			ep.monitor.EmbeddedBatch(end - start)
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, core.Upstream("embed", firstErr)
	}
	return vectors, nil
}
