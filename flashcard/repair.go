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


package flashcard

import "strings"

// repairJSON fixes object keys that models emit without their quotes, such as
// `{Question": "..."}` or `{Answer: "..."}`, rewrites single-quoted keys and
// values as double-quoted strings, and drops a trailing comma before the
// closing brace. Text inside double-quoted strings is copied untouched.
func repairJSON(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+8)
	inString, escaped := false, false

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out = append(out, ch)
		case '\'':
			i = requote(src, i, &out)
		case ',':
			j := skipSpace(src, i+1)
			if j < len(src) && src[j] == '}' {
				// Trailing comma: drop it, keep the whitespace.
				continue
			}
			out = append(out, ch)
			i = repairKey(src, i+1, &out) - 1
		case '{':
			out = append(out, ch)
			i = repairKey(src, i+1, &out) - 1
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// repairKey copies whitespace from start, then quotes a bare key if one
// follows. It returns the index of the first rune not yet copied.
func repairKey(src []rune, start int, out *[]rune) int {
	i := start
	for i < len(src) && isSpace(src[i]) {
		*out = append(*out, src[i])
		i++
	}
	if i >= len(src) || !isLetter(src[i]) {
		return i
	}

	keyStart := i
	for i < len(src) && (isLetter(src[i]) || src[i] == '_') {
		i++
	}
	key := strings.TrimSpace(string(src[keyStart:i]))

	switch {
	case i+1 < len(src) && src[i] == '"' && src[i+1] == ':':
		// Missing opening quote: emit the whole key and step over its closing quote.
		*out = append(*out, '"')
		*out = append(*out, []rune(key)...)
		*out = append(*out, '"')
		return i + 1
	case skipSpace(src, i) < len(src) && src[skipSpace(src, i)] == ':':
		*out = append(*out, '"')
		*out = append(*out, []rune(key)...)
		*out = append(*out, '"')
		return i
	default:
		*out = append(*out, src[keyStart:i]...)
		return i
	}
}

// requote copies the single-quoted string starting at src[start] as a
// double-quoted one and returns the index of its closing quote. An
// unterminated string is copied as is.
func requote(src []rune, start int, out *[]rune) int {
	buf := []rune{'"'}
	for i := start + 1; i < len(src); i++ {
		switch ch := src[i]; {
		case ch == '\\' && i+1 < len(src):
			i++
			if src[i] != '\'' {
				buf = append(buf, '\\')
			}
			buf = append(buf, src[i])
		case ch == '\'':
			*out = append(*out, append(buf, '"')...)
			return i
		case ch == '"':
			buf = append(buf, '\\', '"')
		default:
			buf = append(buf, ch)
		}
	}
	*out = append(*out, src[start:]...)
	return len(src) - 1
}

func skipSpace(src []rune, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
