package mock

import (
	"context"

	"github.com/poiesic/lectern/core"
)

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	Segments []core.TranscriptSegment
	Err      error

	// URLs records every requested audio URL.
	URLs []string
}

// NewMockTranscriber returns a transcriber that yields segments.
func NewMockTranscriber(segments ...core.TranscriptSegment) *MockTranscriber {
	return &MockTranscriber{Segments: segments}
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioURL string) ([]core.TranscriptSegment, error) {
	m.URLs = append(m.URLs, audioURL)
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]core.TranscriptSegment(nil), m.Segments...), nil
}
