package ai

import (
	"context"
	"errors"

	"github.com/poiesic/lectern/core"
)

// ProbeText is embedded once per indexing session to discover the model's dimension.
const ProbeText = "This is a test"

// ErrEmptyEmbedding indicates the embedder returned a zero-length vector.
var ErrEmptyEmbedding = errors.New("embedder returned an empty vector")

// ProbeDimension embeds ProbeText and returns the resulting vector length.
func ProbeDimension(ctx context.Context, embedder Embedder) (int, error) {
	vec, err := embedder.EmbedText(ctx, ProbeText)
	if err != nil {
		return 0, core.Upstream("embed", err)
	}
	if len(vec) == 0 {
		return 0, core.NewError(core.KindUpstreamUnavailable, "embed", ErrEmptyEmbedding)
	}
	return len(vec), nil
}
