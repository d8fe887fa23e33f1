package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
)

// Summarizer produces a structured summary of a whole transcript.
type Summarizer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewSummarizer creates a summarizer. The generator is wrapped so reasoning
// blocks never reach the summary.
func NewSummarizer(generator ai.Generator) (*Summarizer, error) {
	if generator == nil {
		return nil, errors.New("rag: generator is required")
	}
	return &Summarizer{
		generator: ai.NewSanitizingGenerator(generator),
		logger:    slog.Default().With("component", "summarizer"),
	}, nil
}

// Summarize returns the summary with markdown emphasis markers removed.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", core.NewError(core.KindInvalidArgument, "summarize", core.ErrEmptyTranscript)
	}

	s.logger.Debug("summarizing", "words", len(strings.Fields(text)))
	raw, err := s.generator.Generate(ctx, BuildSummaryPrompt(text), "")
	if err != nil {
		return "", core.Upstream("summarize", fmt.Errorf("failed to generate summary: %w", err))
	}
	return strings.TrimSpace(strings.ReplaceAll(raw, "*", "")), nil
}
