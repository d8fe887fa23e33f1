package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"
)

// DefaultDimension matches mxbai-embed-large's smaller sibling; any positive value works.
const DefaultDimension = 384

// MockEmbedder returns hash-derived unit vectors. Set EmbedTextFunc or
// EmbedTextsFunc before use to script failures or fixed vectors.
type MockEmbedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the vector length; zero means DefaultDimension.
	Dimension int

	calls atomic.Int64
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) WithDimension(dim int) *MockEmbedder {
	m.Dimension = dim
	return m
}

// WithEmbedTextFunc scripts per-text behavior. EmbedTexts falls back to it
// when EmbedTextsFunc is unset.
func (m *MockEmbedder) WithEmbedTextFunc(fn func(ctx context.Context, text string) ([]float32, error)) *MockEmbedder {
	m.EmbedTextFunc = fn
	return m
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	return m.one(ctx, text)
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := m.one(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (m *MockEmbedder) one(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dim := m.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	return DeterministicVector(text, dim), nil
}

// CallCount counts EmbedText and EmbedTexts calls; a batch counts once.
func (m *MockEmbedder) CallCount() int {
	return int(m.calls.Load())
}

// DeterministicVector maps text to a unit vector of length dim. Equal text
// gives equal vectors, so identical chunks score identically.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		// xorshift64
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[i] = float32(state%1000)/1000 + 0.001
		norm += float64(vec[i]) * float64(vec[i])
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
