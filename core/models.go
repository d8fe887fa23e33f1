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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID identifies an embedding record within a collection.
// IDs are dense positions (0..N-1) of the source segment within one indexing batch.
type ID uint64

// Fingerprint is a content hash over a transcript.
type Fingerprint uint64

// FingerprintSegments hashes the ordered segment texts and timestamps using BLAKE2b.
// Identical transcripts always produce the same fingerprint.
func FingerprintSegments(segments []TranscriptSegment) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for _, seg := range segments {
		h.Write([]byte(seg.Timestamp))
		h.Write([]byte{0})
		h.Write([]byte(seg.Text))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// TranscriptSegment is one timestamped span of transcribed speech.
type TranscriptSegment struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Text      string `json:"text" yaml:"text"`
}

// EmbeddingRecord is a single indexed segment.
type EmbeddingRecord struct {
	Id        ID
	Vector    []float32
	Text      string
	Timestamp string
}

// Metric selects the similarity function used for nearest-neighbor ranking.
type Metric int

const (
	// MetricInnerProduct ranks by raw dot product.
	MetricInnerProduct Metric = iota + 1
	// MetricCosine ranks by dot product of normalized vectors.
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricInnerProduct:
		return "IP"
	case MetricCosine:
		return "COSINE"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Consistency is the read consistency level of a collection.
type Consistency int

const (
	// ConsistencyStrong means reads observe all prior writes.
	ConsistencyStrong Consistency = iota + 1
)

func (c Consistency) String() string {
	if c == ConsistencyStrong {
		return "Strong"
	}
	return fmt.Sprintf("Consistency(%d)", int(c))
}

// CollectionMeta describes one generation of a named collection.
type CollectionMeta struct {
	Name        string
	Generation  uint64
	Dimension   int
	Metric      Metric
	Consistency Consistency
	Count       int
	Source      Fingerprint
	CreatedAt   time.Time
}

// SearchHit is a single nearest-neighbor result.
type SearchHit struct {
	Id        ID
	Text      string
	Timestamp string
	Score     float32
}

// Flashcard is a question/answer pair extracted from one chapter.
type Flashcard struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// QueryResult is a grounded answer plus the context it was built from.
type QueryResult struct {
	RetrievedTexts []string `json:"retrievedTexts"`
	Answer         string   `json:"answer"`
}

// FormatTimestamp renders an offset into the source audio as m:ss, or h:mm:ss
// once the offset reaches an hour.
func FormatTimestamp(offset time.Duration) string {
	if offset < 0 {
		offset = 0
	}
	total := int64(offset / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
