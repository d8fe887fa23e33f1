package chapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
)

// Cluster count heuristic: max(MinClusters, sentences/SentencesPerCluster).
const (
	MinClusters         = 3
	SentencesPerCluster = 10
)

// Semantic groups sentences by embedding similarity.
type Semantic struct {
	embedder ai.Embedder
	seed     uint64
	inits    int
	logger   *slog.Logger
}

var _ Strategy = (*Semantic)(nil)

// SemanticOption configures a Semantic strategy.
type SemanticOption func(*Semantic)

// WithSeed sets the k-means random seed.
func WithSeed(seed uint64) SemanticOption {
	return func(s *Semantic) {
		s.seed = seed
	}
}

// WithInits sets how many k-means initializations are tried.
func WithInits(n int) SemanticOption {
	return func(s *Semantic) {
		if n > 0 {
			s.inits = n
		}
	}
}

// NewSemantic creates a clustering strategy that embeds with embedder.
func NewSemantic(embedder ai.Embedder, opts ...SemanticOption) (*Semantic, error) {
	if embedder == nil {
		return nil, errors.New("chapter: embedder is required")
	}
	s := &Semantic{
		embedder: embedder,
		seed:     DefaultSeed,
		inits:    DefaultInits,
		logger:   slog.Default().With("component", "chapter-semantic"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ErrNoUsableEmbeddings is returned when every sentence embedding was empty,
// non-finite or of a minority dimension.
var ErrNoUsableEmbeddings = fmt.Errorf("no usable sentence embeddings: %w", core.ErrDimensionMismatch)

// ClusterCount returns max(MinClusters, n/SentencesPerCluster), never more than n.
func ClusterCount(n int) int {
	return min(max(MinClusters, n/SentencesPerCluster), n)
}

// Chapters emits one chapter per non-empty cluster in ascending label order.
// Sentences inside a chapter keep their original relative order.
func (s *Semantic) Chapters(ctx context.Context, texts []string) ([]string, error) {
	sentences := make([]string, 0)
	for _, sentence := range SplitSentences(Join(texts)) {
		if strings.TrimSpace(sentence) != "" {
			sentences = append(sentences, sentence)
		}
	}
	if len(sentences) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.EmbedTexts(ctx, sentences)
	if err != nil {
		return nil, core.Upstream("chapter", err)
	}
	if len(vectors) != len(sentences) {
		return nil, core.NewError(core.KindUpstreamUnavailable, "chapter",
			fmt.Errorf("expected %d embeddings, got %d", len(sentences), len(vectors)))
	}

	sentences, vectors = s.usable(sentences, vectors)
	if len(sentences) == 0 {
		return nil, core.NewError(core.KindUpstreamUnavailable, "chapter", ErrNoUsableEmbeddings)
	}

	k := ClusterCount(len(sentences))
	clustering := KMeans(vectors, k, s.seed, s.inits, DefaultMaxIters)
	s.logger.Debug("clustered sentences", "sentences", len(sentences), "clusters", k, "inertia", clustering.Inertia)

	members := make([][]string, k)
	for i, label := range clustering.Labels {
		members[label] = append(members[label], sentences[i])
	}
	chapters := make([]string, 0, k)
	for _, group := range members {
		if len(group) > 0 {
			chapters = append(chapters, strings.Join(group, " "))
		}
	}
	return chapters, nil
}

// usable drops sentences whose embedding is empty, holds NaN or Inf, or
// differs in length from the most common dimension in the batch.
func (s *Semantic) usable(sentences []string, vectors [][]float32) ([]string, [][]float32) {
	counts := make(map[int]int)
	dim := 0
	for _, vec := range vectors {
		if n := len(vec); n > 0 && finite(vec) {
			counts[n]++
			if counts[n] > counts[dim] {
				dim = n
			}
		}
	}

	keptSentences := make([]string, 0, len(sentences))
	keptVectors := make([][]float32, 0, len(vectors))
	for i, vec := range vectors {
		if dim > 0 && len(vec) == dim && finite(vec) {
			keptSentences = append(keptSentences, sentences[i])
			keptVectors = append(keptVectors, vec)
		}
	}
	if dropped := len(sentences) - len(keptSentences); dropped > 0 {
		s.logger.Warn("dropped sentences with malformed embeddings",
			"kind", core.KindDataIntegrityWarning,
			"dropped", dropped,
			"total", len(sentences),
			"dimension", dim)
	}
	return keptSentences, keptVectors
}

func finite(vec []float32) bool {
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
