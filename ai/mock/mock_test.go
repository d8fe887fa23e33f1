package mock

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("hello", 16)
	b := DeterministicVector("hello", 16)
	c := DeterministicVector("world", 16)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedderConcurrentCalls(t *testing.T) {
	m := NewMockEmbedder().WithDimension(8)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := m.EmbedText(context.Background(), "text")
			assert.NoError(t, err)
			assert.Len(t, vec, 8)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.CallCount())
}

func TestMockProviderStripsReasoning(t *testing.T) {
	gen := NewMockGenerator("<think>x</think>done")
	p := NewMockProviderWithServices(NewMockEmbedder(), gen)

	out, err := p.Generator().Generate(context.Background(), "p", "s")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	require.Len(t, gen.Calls(), 1)
	assert.Equal(t, Call{Prompt: "p", System: "s"}, gen.Calls()[0])
}
