package assemblyai

import (
	"context"
	"testing"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/poiesic/lectern/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestToSegments(t *testing.T) {
	t.Run("utterances become segments", func(t *testing.T) {
		transcript := aai.Transcript{
			Utterances: []aai.TranscriptUtterance{
				{Start: ptr(int64(0)), Text: ptr("Welcome to the lecture.")},
				{Start: ptr(int64(65_500)), Text: ptr("  Today we cover graphs. ")},
				{Start: ptr(int64(3_725_000)), Text: ptr("Questions?")},
				{Start: ptr(int64(3_800_000)), Text: ptr("   ")},
			},
		}

		got := toSegments(transcript)
		assert.Equal(t, []core.TranscriptSegment{
			{Timestamp: "0:00", Text: "Welcome to the lecture."},
			{Timestamp: "1:05", Text: "Today we cover graphs."},
			{Timestamp: "1:02:05", Text: "Questions?"},
		}, got)
	})

	t.Run("falls back to full text", func(t *testing.T) {
		got := toSegments(aai.Transcript{Text: ptr("whole thing")})
		assert.Equal(t, []core.TranscriptSegment{{Timestamp: "0:00", Text: "whole thing"}}, got)
	})

	t.Run("empty transcript", func(t *testing.T) {
		assert.Empty(t, toSegments(aai.Transcript{}))
	})
}

func TestNewTranscriber(t *testing.T) {
	_, err := NewTranscriber("")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)

	tr, err := NewTranscriber("key", WithLanguageCode("en"))
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), " ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
