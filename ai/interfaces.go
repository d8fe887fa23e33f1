package ai

import (
	"context"

	"github.com/poiesic/lectern/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The result is deterministic for a fixed model version.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free text from a prompt.
// Output is untrusted; callers validate it before use.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends prompt, with an optional system message, and returns
	// the raw model output.
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Transcriber turns audio into ordered transcript segments.
type Transcriber interface {
	// Transcribe fetches and transcribes the audio at audioURL.
	Transcribe(ctx context.Context, audioURL string) ([]core.TranscriptSegment, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
