// Package assemblyai implements ai.Transcriber with the AssemblyAI speech-to-text API.
package assemblyai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
)

// ErrAPIKeyRequired is returned when no API key is configured.
var ErrAPIKeyRequired = errors.New("assemblyai: API key is required")

// Transcriber submits audio URLs to AssemblyAI and waits for the result.
type Transcriber struct {
	client       *aai.Client
	languageCode string
	logger       *slog.Logger
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithLanguageCode forces a transcription language, e.g. "en" or "vi".
// Empty lets the service detect it.
func WithLanguageCode(code string) Option {
	return func(t *Transcriber) {
		t.languageCode = code
	}
}

// NewTranscriber creates a transcriber authenticated with apiKey.
//
// Returns ai.Transcriber interface to enforce abstraction.
func NewTranscriber(apiKey string, opts ...Option) (ai.Transcriber, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	t := &Transcriber{
		client: aai.NewClient(apiKey),
		logger: slog.Default().With("component", "assemblyai"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Transcribe blocks until AssemblyAI finishes audioURL and returns one segment
// per speaker turn.
func (t *Transcriber) Transcribe(ctx context.Context, audioURL string) ([]core.TranscriptSegment, error) {
	if strings.TrimSpace(audioURL) == "" {
		return nil, core.NewError(core.KindInvalidArgument, "transcribe", errors.New("audio URL is required"))
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if t.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(t.languageCode)
	}

	start := time.Now()
	t.logger.Info("starting transcription", "url", audioURL)
	transcript, err := t.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.NewError(core.KindUpstreamTimeout, "transcribe", err)
		}
		return nil, core.NewError(core.KindTranscriptionFailed, "transcribe", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "transcription failed"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, core.NewError(core.KindTranscriptionFailed, "transcribe", errors.New(msg))
	}

	segments := toSegments(transcript)
	if len(segments) == 0 {
		return nil, core.NewError(core.KindTranscriptionFailed, "transcribe", core.ErrEmptyTranscript)
	}
	t.logger.Info("transcription complete", "segments", len(segments), "elapsed", time.Since(start))
	return segments, nil
}

// toSegments maps utterances to segments stamped with their start offset.
// Transcripts without utterances collapse to a single segment at 0:00.
func toSegments(transcript aai.Transcript) []core.TranscriptSegment {
	segments := make([]core.TranscriptSegment, 0, len(transcript.Utterances))
	for _, utt := range transcript.Utterances {
		if utt.Text == nil || strings.TrimSpace(*utt.Text) == "" {
			continue
		}
		var offset time.Duration
		if utt.Start != nil {
			offset = time.Duration(*utt.Start) * time.Millisecond
		}
		segments = append(segments, core.TranscriptSegment{
			Timestamp: core.FormatTimestamp(offset),
			Text:      strings.TrimSpace(*utt.Text),
		})
	}
	if len(segments) > 0 {
		return segments
	}
	if transcript.Text != nil && strings.TrimSpace(*transcript.Text) != "" {
		segments = append(segments, core.TranscriptSegment{
			Timestamp: core.FormatTimestamp(0),
			Text:      strings.TrimSpace(*transcript.Text),
		})
	}
	return segments
}
