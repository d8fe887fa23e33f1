package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFingerprintSegments(t *testing.T) {
	a := []TranscriptSegment{{Timestamp: "0:00", Text: "hello"}, {Timestamp: "0:04", Text: "world"}}
	b := []TranscriptSegment{{Timestamp: "0:00", Text: "hello"}, {Timestamp: "0:04", Text: "world"}}
	c := []TranscriptSegment{{Timestamp: "0:00", Text: "hellow"}, {Timestamp: "0:04", Text: "orld"}}

	if FingerprintSegments(a) != FingerprintSegments(b) {
		t.Error("identical transcripts produced different fingerprints")
	}
	if FingerprintSegments(a) == FingerprintSegments(c) {
		t.Error("segment boundaries should affect the fingerprint")
	}
	if got := len(FingerprintSegments(a).String()); got != 16 {
		t.Errorf("fingerprint string length = %d, want 16", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{0, "0:00"},
		{-3 * time.Second, "0:00"},
		{5 * time.Second, "0:05"},
		{65*time.Second + 900*time.Millisecond, "1:05"},
		{10 * time.Minute, "10:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTimestamp(tt.offset); got != tt.want {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.offset, got, tt.want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	err := NewError(KindNoValidRecords, "insert", fmt.Errorf("0 of 3 records valid"))

	if !errors.Is(err, ErrNoValidRecords) {
		t.Error("expected typed error to match its kind sentinel")
	}
	if errors.Is(err, ErrCollectionNotFound) {
		t.Error("typed error matched a different kind")
	}

	wrapped := fmt.Errorf("index: %w", err)
	if KindOf(wrapped) != KindNoValidRecords {
		t.Errorf("KindOf() = %q, want %q", KindOf(wrapped), KindNoValidRecords)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
	if got := err.Error(); got != "insert: no_valid_records: 0 of 3 records valid" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUpstream(t *testing.T) {
	if Upstream("embed", nil) != nil {
		t.Error("nil stays nil")
	}

	timeout := Upstream("embed", fmt.Errorf("call: %w", context.DeadlineExceeded))
	if KindOf(timeout) != KindUpstreamTimeout {
		t.Errorf("deadline classified as %q", KindOf(timeout))
	}

	down := Upstream("generate", errors.New("connection refused"))
	if KindOf(down) != KindUpstreamUnavailable {
		t.Errorf("connection failure classified as %q", KindOf(down))
	}

	typed := NewError(KindCollectionNotFound, "search", nil)
	if Upstream("query", typed) != error(typed) {
		t.Error("typed errors pass through unchanged")
	}
}
