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


// Package chapter partitions a transcript into ordered chapter texts.
//
// Two independent strategies are provided. Uniform splits the sentence
// sequence into evenly sized runs whose count grows with the square root of
// the word count. Semantic embeds each sentence and groups sentences by
// k-means cluster. Both return an empty sequence for blank input.
package chapter

import (
	"context"
	"strings"
)

// SentenceDelimiter separates sentences in the concatenated transcript.
const SentenceDelimiter = ". "

// Strategy turns segment texts into chapter texts.
type Strategy interface {
	// Chapters concatenates texts in order and partitions the result.
	Chapters(ctx context.Context, texts []string) ([]string, error)
}

// Join concatenates segment texts the way every strategy does before splitting.
func Join(texts []string) string {
	return strings.Join(texts, " ")
}

// SplitSentences splits text on SentenceDelimiter. Blank text yields nil.
// Joining the result with SentenceDelimiter reproduces text exactly.
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, SentenceDelimiter)
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
