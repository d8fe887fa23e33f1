package transcript

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/lectern/core"
)

// ParseSRT turns SubRip cues into segments, one per cue, stamped with the
// cue start time. Multi-line cue text is joined with spaces.
//
//	1
//	00:00:00,000 --> 00:00:01,830
//	I'm happy to
//	have you here today.
func ParseSRT(text string) ([]core.TranscriptSegment, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var segments []core.TranscriptSegment
	var current *core.TranscriptSegment
	flush := func() {
		if current != nil && current.Text != "" {
			segments = append(segments, *current)
		}
		current = nil
	}

	for n, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			flush()
			start, _, _ := strings.Cut(line, "-->")
			offset, err := parseSRTTime(strings.TrimSpace(start))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			current = &core.TranscriptSegment{Timestamp: core.FormatTimestamp(offset)}
		case current == nil:
			// Sequence number or stray text outside a cue.
		case current.Text == "":
			current.Text = line
		default:
			current.Text += " " + line
		}
	}
	flush()
	return segments, nil
}

// parseSRTTime parses HH:MM:SS,mmm (a '.' separator is accepted too).
func parseSRTTime(s string) (time.Duration, error) {
	clock, millis, _ := strings.Cut(strings.Replace(s, ".", ",", 1), ",")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid SRT timestamp %q", s)
	}

	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid SRT timestamp %q", s)
		}
		total += time.Duration(v) * units[i]
	}
	if millis != "" {
		v, err := strconv.Atoi(millis)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid SRT timestamp %q", s)
		}
		total += time.Duration(v) * time.Millisecond
	}
	return total, nil
}
