package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/lectern/ai/mock"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/index"
	"github.com/poiesic/lectern/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	hits  []*core.SearchHit
	err   error
	gotK  int
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k int) ([]*core.SearchHit, error) {
	f.calls++
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func hits(texts ...string) []*core.SearchHit {
	out := make([]*core.SearchHit, len(texts))
	for i, text := range texts {
		out[i] = &core.SearchHit{Id: core.ID(i), Text: text, Score: float32(len(texts) - i)}
	}
	return out
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil, mock.NewMockGenerator(""), &fakeSearcher{})
	assert.Error(t, err)

	_, err = NewEngine(mock.NewMockEmbedder(), mock.NewMockGenerator(""), &fakeSearcher{}, WithTopK(0))
	assert.Error(t, err)
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("builds grounded prompt in rank order", func(t *testing.T) {
		gen := mock.NewMockGenerator("<think>reasoning</think>\nGraphs were discussed.")
		searcher := &fakeSearcher{hits: hits("first", "second", "third", "fourth")}
		engine, err := NewEngine(mock.NewMockEmbedder(), gen, searcher)
		require.NoError(t, err)

		result, err := engine.Answer(ctx, "What is discussed?")
		require.NoError(t, err)

		assert.Equal(t, "Graphs were discussed.", result.Answer)
		assert.Equal(t, []string{"first", "second", "third"}, result.RetrievedTexts)
		assert.Equal(t, DefaultTopK, searcher.gotK)

		calls := gen.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, QuerySystemPrompt, calls[0].System)
		assert.Contains(t, calls[0].Prompt, "<context>\nfirst\nsecond\nthird\n</context>")
		assert.Contains(t, calls[0].Prompt, "<question>\nWhat is discussed?\n</question>")
	})

	t.Run("empty generation uses fallback", func(t *testing.T) {
		gen := mock.NewMockGenerator("<think>only thoughts</think>   ")
		engine, err := NewEngine(mock.NewMockEmbedder(), gen, &fakeSearcher{hits: hits("a")})
		require.NoError(t, err)

		result, err := engine.Answer(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, FallbackAnswer, result.Answer)
	})

	t.Run("custom top k", func(t *testing.T) {
		searcher := &fakeSearcher{hits: hits("a", "b", "c", "d", "e")}
		engine, err := NewEngine(mock.NewMockEmbedder(), mock.NewMockGenerator("ok"), searcher, WithTopK(5))
		require.NoError(t, err)

		result, err := engine.Answer(ctx, "q")
		require.NoError(t, err)
		assert.Len(t, result.RetrievedTexts, 5)
	})

	t.Run("empty query", func(t *testing.T) {
		searcher := &fakeSearcher{}
		engine, err := NewEngine(mock.NewMockEmbedder(), mock.NewMockGenerator("ok"), searcher)
		require.NoError(t, err)

		_, err = engine.Answer(ctx, "  ")
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
		assert.Zero(t, searcher.calls)
	})
}

func TestAnswerFailures(t *testing.T) {
	ctx := context.Background()

	failingEmbedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	})
	timeoutEmbedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, context.DeadlineExceeded
	})
	failingGenerator := mock.NewMockGenerator("").WithGenerateFunc(func(ctx context.Context, prompt, system string) (string, error) {
		return "", core.NewError(core.KindUpstreamUnavailable, "generate", errors.New("502"))
	})

	tests := []struct {
		name      string
		embedder  *mock.MockEmbedder
		generator *mock.MockGenerator
		searcher  *fakeSearcher
		wantKind  core.Kind
	}{
		{"embedding failure", failingEmbedder, mock.NewMockGenerator("ok"), &fakeSearcher{}, core.KindQueryFailed},
		{"embedding timeout", timeoutEmbedder, mock.NewMockGenerator("ok"), &fakeSearcher{}, core.KindUpstreamTimeout},
		{"no collection", mock.NewMockEmbedder(), mock.NewMockGenerator("ok"),
			&fakeSearcher{err: core.NewError(core.KindCollectionNotFound, "search", nil)}, core.KindCollectionNotFound},
		{"search failure", mock.NewMockEmbedder(), mock.NewMockGenerator("ok"),
			&fakeSearcher{err: core.NewError(core.KindUpstreamUnavailable, "search", errors.New("io"))}, core.KindQueryFailed},
		{"generation failure", mock.NewMockEmbedder(), failingGenerator, &fakeSearcher{hits: hits("a")}, core.KindQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.embedder, tt.generator, tt.searcher)
			require.NoError(t, err)

			result, err := engine.Answer(ctx, "What is discussed?")
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, core.KindOf(err))
		})
	}
}

func TestAnswerAgainstIndex(t *testing.T) {
	ctx := context.Background()
	store, backend, err := badger.NewMemoryCollectionStore()
	require.NoError(t, err)
	defer backend.Close()
	defer store.Close()

	mgr, err := index.NewManager(ctx, store, "my_rag_collection")
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder().WithDimension(32)
	engine, err := NewEngine(embedder, mock.NewMockGenerator("An answer."), mgr)
	require.NoError(t, err)

	_, err = engine.Answer(ctx, "What is discussed?")
	assert.ErrorIs(t, err, core.ErrCollectionNotFound)

	segments := []string{"Welcome to the course", "Today we discuss sorting", "Merge sort is stable"}
	records := make([]*core.EmbeddingRecord, len(segments))
	for i, text := range segments {
		vec, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		records[i] = &core.EmbeddingRecord{Id: core.ID(i), Vector: vec, Text: text, Timestamp: fmt.Sprintf("0:%02d", i*10)}
	}
	_, _, err = mgr.Replace(ctx, index.Spec{Name: "my_rag_collection", Dimension: 32}, records)
	require.NoError(t, err)

	result, err := engine.Answer(ctx, "Merge sort is stable")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)
	require.LessOrEqual(t, len(result.RetrievedTexts), 3)
	assert.Equal(t, "Merge sort is stable", result.RetrievedTexts[0])
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()

	gen := mock.NewMockGenerator("<think>outline first</think>**Overview**\n* point one\n")
	s, err := NewSummarizer(gen)
	require.NoError(t, err)

	summary, err := s.Summarize(ctx, "a long transcript")
	require.NoError(t, err)
	assert.Equal(t, "Overview\n point one", summary)
	assert.True(t, strings.HasSuffix(gen.Calls()[0].Prompt, "Input Content: a long transcript"))

	_, err = s.Summarize(ctx, " ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	failing := mock.NewMockGenerator("").WithGenerateFunc(func(ctx context.Context, prompt, system string) (string, error) {
		return "", errors.New("down")
	})
	s, err = NewSummarizer(failing)
	require.NoError(t, err)
	_, err = s.Summarize(ctx, "text")
	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
}
