package core

import (
	"fmt"
	"strings"
)

// ValidateFlashcard validates a Flashcard according to domain rules.
//
// Validation rules:
//   - Question must not be empty after trimming whitespace
//   - Answer must not be empty after trimming whitespace
func ValidateFlashcard(card *Flashcard) error {
	if card == nil {
		return fmt.Errorf("%w: flashcard is nil", ErrInvalidFlashcard)
	}

	if strings.TrimSpace(card.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFlashcard, ErrEmptyQuestion)
	}

	if strings.TrimSpace(card.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFlashcard, ErrEmptyAnswer)
	}

	return nil
}

// ValidateTranscript checks that a transcript can be indexed.
// Individual segments may have empty text; they still occupy an id.
func ValidateTranscript(segments []TranscriptSegment) error {
	if len(segments) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// HasDimension reports whether a record's vector matches the collection dimension.
func (r *EmbeddingRecord) HasDimension(dimension int) bool {
	return r != nil && dimension > 0 && len(r.Vector) == dimension
}
