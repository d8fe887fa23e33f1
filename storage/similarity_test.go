package storage

import (
	"testing"

	"github.com/poiesic/lectern/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite vectors", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"general case", []float32{0.6, 0.8}, []float32{0.8, 0.6}, 0.96},
		{"unnormalized", []float32{2, 0}, []float32{3, 0}, 6},
		{"empty vectors", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestScore(t *testing.T) {
	ip, err := Score(core.MetricInnerProduct, []float32{2, 0}, []float32{3, 0})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, ip, 0.0001)

	cos, err := Score(core.MetricCosine, []float32{2, 0}, []float32{3, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cos, 0.0001)

	zero, err := Score(core.MetricCosine, []float32{0, 0}, []float32{3, 0})
	require.NoError(t, err)
	assert.Zero(t, zero)

	_, err = Score(core.Metric(99), []float32{1}, []float32{1})
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}

func TestRanker(t *testing.T) {
	t.Run("rejects wrong query dimension", func(t *testing.T) {
		_, err := NewRanker(core.MetricInnerProduct, []float32{1, 0}, 3, 3)
		assert.ErrorIs(t, err, ErrInvalidQuery)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := NewRanker(core.MetricInnerProduct, []float32{1}, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("orders descending and truncates", func(t *testing.T) {
		r, err := NewRanker(core.MetricInnerProduct, []float32{1, 0}, 2, 2)
		require.NoError(t, err)
		r.Add(&core.EmbeddingRecord{Id: 0, Text: "low", Vector: []float32{0.1, 0.9}})
		r.Add(&core.EmbeddingRecord{Id: 1, Text: "high", Vector: []float32{0.9, 0.1}})
		r.Add(&core.EmbeddingRecord{Id: 2, Text: "mid", Vector: []float32{0.5, 0.5}})
		r.Add(&core.EmbeddingRecord{Id: 3, Text: "bad", Vector: []float32{1}})

		hits := r.Top(2)
		require.Len(t, hits, 2)
		assert.Equal(t, "high", hits[0].Text)
		assert.Equal(t, "mid", hits[1].Text)
		assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	})
}
