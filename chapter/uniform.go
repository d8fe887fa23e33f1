package chapter

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Default uniform partition parameters.
const (
	DefaultMinChapters   = 2
	DefaultMaxChapters   = 8
	DefaultScalingFactor = 0.1
)

// ceilEpsilon absorbs float error so that e.g. 0.1*sqrt(900) counts as 3, not 4.
const ceilEpsilon = 1e-9

// Uniform partitions sentences into evenly sized, temporally ordered chapters.
type Uniform struct {
	minChapters   int
	maxChapters   int
	scalingFactor float64
}

var _ Strategy = (*Uniform)(nil)

// NewUniform creates a uniform strategy. minChapters must be at least 1 and
// no greater than maxChapters; scalingFactor must not be negative.
func NewUniform(minChapters, maxChapters int, scalingFactor float64) (*Uniform, error) {
	if minChapters < 1 {
		return nil, fmt.Errorf("min chapters must be at least 1, got %d", minChapters)
	}
	if maxChapters < minChapters {
		return nil, fmt.Errorf("max chapters %d is below min chapters %d", maxChapters, minChapters)
	}
	if scalingFactor < 0 || math.IsNaN(scalingFactor) {
		return nil, fmt.Errorf("scaling factor must not be negative, got %v", scalingFactor)
	}
	return &Uniform{
		minChapters:   minChapters,
		maxChapters:   maxChapters,
		scalingFactor: scalingFactor,
	}, nil
}

// DefaultUniform returns the strategy with min=2, max=8, scaling=0.1.
func DefaultUniform() *Uniform {
	u, _ := NewUniform(DefaultMinChapters, DefaultMaxChapters, DefaultScalingFactor)
	return u
}

// WithMaxChapters returns a copy of u capped at maxChapters instead.
func (u *Uniform) WithMaxChapters(maxChapters int) (*Uniform, error) {
	return NewUniform(u.minChapters, maxChapters, u.scalingFactor)
}

// ChapterCount returns clamp(min + ceil(scaling*sqrt(words)), min, max).
func (u *Uniform) ChapterCount(wordCount int) int {
	if wordCount < 0 {
		wordCount = 0
	}
	growth := math.Ceil(u.scalingFactor*math.Sqrt(float64(wordCount)) - ceilEpsilon)
	if growth < 0 {
		growth = 0
	}
	count := u.minChapters + int(growth)
	return max(u.minChapters, min(count, u.maxChapters))
}

// Distribute returns the size of each of c chapters holding n sentences.
// Every chapter gets n/c; the first n%c get one more.
func Distribute(n, c int) []int {
	if c <= 0 {
		return nil
	}
	if n < 0 {
		n = 0
	}
	base, extra := n/c, n%c
	sizes := make([]int, c)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// Split partitions text. Blank text yields nil.
func (u *Uniform) Split(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	sizes := Distribute(len(sentences), u.ChapterCount(WordCount(text)))
	chapters := make([]string, len(sizes))
	start := 0
	for i, size := range sizes {
		chapters[i] = strings.Join(sentences[start:start+size], SentenceDelimiter)
		start += size
	}
	return chapters
}

// Chapters joins texts with spaces and partitions the result.
func (u *Uniform) Chapters(ctx context.Context, texts []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.Split(Join(texts)), nil
}
