// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the machine-readable category of a failure.
type Kind string

const (
	KindUpstreamUnavailable  Kind = "upstream_unavailable"
	KindUpstreamTimeout      Kind = "upstream_timeout"
	KindDataIntegrityWarning Kind = "data_integrity_warning"
	KindNoValidRecords       Kind = "no_valid_records"
	KindCollectionNotFound   Kind = "collection_not_found"
	KindExtractionSkipped    Kind = "extraction_skipped"
	KindQueryFailed          Kind = "query_failed"
	KindTranscriptionFailed  Kind = "transcription_failed"
	KindInvalidArgument      Kind = "invalid_argument"
)

// Error is a typed failure surfaced at component boundaries.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "embed" or "search".
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrNoValidRecords) matches any no_valid_records failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Kind sentinels for use with errors.Is.
var (
	ErrUpstreamUnavailable  = &Error{Kind: KindUpstreamUnavailable}
	ErrUpstreamTimeout      = &Error{Kind: KindUpstreamTimeout}
	ErrDataIntegrityWarning = &Error{Kind: KindDataIntegrityWarning}
	ErrNoValidRecords       = &Error{Kind: KindNoValidRecords}
	ErrCollectionNotFound   = &Error{Kind: KindCollectionNotFound}
	ErrExtractionSkipped    = &Error{Kind: KindExtractionSkipped}
	ErrQueryFailed          = &Error{Kind: KindQueryFailed}
	ErrTranscriptionFailed  = &Error{Kind: KindTranscriptionFailed}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
)

// Domain validation errors
var (
	// ErrInvalidFlashcard indicates a Flashcard failed validation.
	ErrInvalidFlashcard = errors.New("invalid flashcard")

	// ErrEmptyQuestion indicates the Question field is blank.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrEmptyAnswer indicates the Answer field is blank.
	ErrEmptyAnswer = errors.New("answer cannot be empty")

	// ErrEmptyTranscript indicates a transcript with no segments.
	ErrEmptyTranscript = errors.New("transcript has no segments")

	// ErrDimensionMismatch indicates a vector whose length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// NewError builds a typed failure.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Upstream classifies a collaborator failure. Deadline expiry becomes
// upstream_timeout, already-typed errors pass through unchanged, anything
// else is upstream_unavailable.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindUpstreamTimeout, op, err)
	}
	return NewError(KindUpstreamUnavailable, op, err)
}

// KindOf returns the kind of the outermost typed failure in err's chain,
// or the empty kind when err carries none.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}
