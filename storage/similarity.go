package storage

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/lectern/core"
)

// Score computes the similarity of two equal-length vectors under metric.
func Score(metric core.Metric, a, b []float32) (float32, error) {
	switch metric {
	case core.MetricInnerProduct:
		return dotProduct(a, b), nil
	case core.MetricCosine:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0, nil
		}
		return dotProduct(a, b) / (na * nb), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}
}

// Ranker accumulates scored hits and yields the best ones.
type Ranker struct {
	metric core.Metric
	query  []float32
	hits   []*core.SearchHit
}

// NewRanker validates the query and returns a ranker for it.
func NewRanker(metric core.Metric, query []float32, dimension, limit int) (*Ranker, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, limit)
	}
	if len(query) != dimension {
		return nil, fmt.Errorf("%w: %w: query has %d dimensions, collection has %d",
			ErrInvalidQuery, core.ErrDimensionMismatch, len(query), dimension)
	}
	if _, err := Score(metric, query, query); err != nil {
		return nil, err
	}
	return &Ranker{metric: metric, query: query}, nil
}

// Add scores a record. Records whose vector length differs from the query are ignored.
func (r *Ranker) Add(record *core.EmbeddingRecord) {
	if len(record.Vector) != len(r.query) {
		return
	}
	score, _ := Score(r.metric, r.query, record.Vector)
	r.hits = append(r.hits, &core.SearchHit{
		Id:        record.Id,
		Text:      record.Text,
		Timestamp: record.Timestamp,
		Score:     score,
	})
}

// Top returns at most limit hits sorted by score descending. Ties keep Id order.
func (r *Ranker) Top(limit int) []*core.SearchHit {
	slices.SortStableFunc(r.hits, func(a, b *core.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(r.hits) > limit {
		r.hits = r.hits[:limit]
	}
	return r.hits
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	return float32(math.Sqrt(float64(dotProduct(v, v))))
}
