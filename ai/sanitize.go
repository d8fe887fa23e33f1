package ai

import (
	"context"
	"regexp"
)

var reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripReasoning removes every <think>...</think> block from model output.
func StripReasoning(text string) string {
	return reasoningBlock.ReplaceAllString(text, "")
}

// SanitizingGenerator strips reasoning blocks from everything the wrapped
// generator returns, before any caller parses it.
type SanitizingGenerator struct {
	next Generator
}

// NewSanitizingGenerator wraps next. Wrapping an already sanitizing generator
// returns it unchanged.
func NewSanitizingGenerator(next Generator) Generator {
	if s, ok := next.(*SanitizingGenerator); ok {
		return s
	}
	return &SanitizingGenerator{next: next}
}

// Generate calls the wrapped generator and strips its output.
func (s *SanitizingGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	out, err := s.next.Generate(ctx, prompt, system)
	if err != nil {
		return "", err
	}
	return StripReasoning(out), nil
}
