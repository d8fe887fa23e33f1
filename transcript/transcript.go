// Package transcript loads and saves transcript segments.
//
// Two formats are understood: a JSON array of {"timestamp", "text"} objects,
// as written by WriteJSON, and SubRip (.srt) subtitle files.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/lectern/core"
)

// ErrUnknownFormat is returned for files that are neither JSON nor SRT.
var ErrUnknownFormat = errors.New("unknown transcript format")

// Load reads a transcript file, choosing the parser by extension.
func Load(path string) ([]core.TranscriptSegment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var segments []core.TranscriptSegment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		segments, err = ParseJSON(strings.NewReader(string(data)))
	case ".srt":
		segments, err = ParseSRT(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return segments, nil
}

// ParseJSON decodes a JSON array of segments.
func ParseJSON(r io.Reader) ([]core.TranscriptSegment, error) {
	var segments []core.TranscriptSegment
	if err := json.NewDecoder(r).Decode(&segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// WriteJSON encodes segments as an indented JSON array.
func WriteJSON(w io.Writer, segments []core.TranscriptSegment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(segments)
}

// Save writes segments to path as JSON.
func Save(path string, segments []core.TranscriptSegment) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, segments); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Texts returns the text of every segment in order.
func Texts(segments []core.TranscriptSegment) []string {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return texts
}
