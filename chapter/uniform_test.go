package chapter

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSentences builds n sentences of wordsEach words each.
func makeSentences(n, wordsEach int) []string {
	sentences := make([]string, n)
	for i := range sentences {
		words := make([]string, wordsEach)
		for j := range words {
			words[j] = fmt.Sprintf("w%d_%d", i, j)
		}
		sentences[i] = strings.Join(words, " ")
	}
	return sentences
}

func TestNewUniform(t *testing.T) {
	tests := []struct {
		name    string
		min     int
		max     int
		scaling float64
		wantErr bool
	}{
		{"defaults", 2, 8, 0.1, false},
		{"min equals max", 3, 3, 0.1, false},
		{"zero min", 0, 8, 0.1, true},
		{"max below min", 4, 2, 0.1, true},
		{"negative scaling", 2, 8, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUniform(tt.min, tt.max, tt.scaling)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChapterCount(t *testing.T) {
	u := DefaultUniform()
	tests := []struct {
		words int
		want  int
	}{
		{0, 2},
		{1, 3},
		{100, 3},
		{101, 4},
		{900, 5},
		{2500, 7},
		{3600, 8},
		{1_000_000, 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d words", tt.words), func(t *testing.T) {
			assert.Equal(t, tt.want, u.ChapterCount(tt.words))
		})
	}

	capped, err := u.WithMaxChapters(6)
	require.NoError(t, err)
	assert.Equal(t, 6, capped.ChapterCount(1_000_000))
}

func TestDistribute(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for c := 1; c <= 9; c++ {
			sizes := Distribute(n, c)
			require.Len(t, sizes, c)

			sum, extra := 0, 0
			for i, size := range sizes {
				sum += size
				if size == n/c+1 {
					extra++
				} else {
					require.Equal(t, n/c, size)
				}
				if i > 0 {
					require.LessOrEqual(t, size, sizes[i-1], "remainder must be absorbed at the front")
				}
			}
			assert.Equal(t, n, sum)
			assert.Equal(t, n%c, extra)
		}
	}
	assert.Nil(t, Distribute(5, 0))
}

func TestUniformScenario(t *testing.T) {
	// 100 sentences of 9 words each: 900 words, 5 chapters of 20 sentences.
	sentences := makeSentences(100, 9)
	text := strings.Join(sentences, SentenceDelimiter)
	require.Equal(t, 900, WordCount(text))

	chapters := DefaultUniform().Split(text)
	require.Len(t, chapters, 5)
	for _, chapter := range chapters {
		assert.Len(t, SplitSentences(chapter), 20)
	}
}

func TestUniformLossless(t *testing.T) {
	u := DefaultUniform()
	for _, n := range []int{1, 2, 3, 7, 19, 64, 250} {
		t.Run(fmt.Sprintf("%d sentences", n), func(t *testing.T) {
			text := strings.Join(makeSentences(n, 12), SentenceDelimiter)
			chapters := u.Split(text)

			assert.GreaterOrEqual(t, len(chapters), DefaultMinChapters)
			assert.LessOrEqual(t, len(chapters), DefaultMaxChapters)

			nonEmpty := make([]string, 0, len(chapters))
			for _, chapter := range chapters {
				if chapter != "" {
					nonEmpty = append(nonEmpty, chapter)
				}
			}
			assert.Equal(t, text, strings.Join(nonEmpty, SentenceDelimiter))
		})
	}
}

func TestUniformChapters(t *testing.T) {
	ctx := context.Background()
	u := DefaultUniform()

	t.Run("blank input", func(t *testing.T) {
		chapters, err := u.Chapters(ctx, []string{"", "   "})
		require.NoError(t, err)
		assert.Empty(t, chapters)
	})

	t.Run("fewer sentences than chapters", func(t *testing.T) {
		chapters, err := u.Chapters(ctx, []string{"Only one sentence here."})
		require.NoError(t, err)
		assert.Equal(t, []string{"Only one sentence here.", "", ""}, chapters)
	})

	t.Run("segments joined with spaces", func(t *testing.T) {
		chapters, err := u.Chapters(ctx, []string{"First part.", "Second part. Third part."})
		require.NoError(t, err)
		require.Len(t, chapters, 3)
		// The delimiter is consumed by the split and restored only between sentences.
		assert.Equal(t, "First part", chapters[0])
		assert.Equal(t, "Second part", chapters[1])
		assert.Equal(t, "Third part.", chapters[2])
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := u.Chapters(cctx, []string{"text"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
