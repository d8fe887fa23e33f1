package flashcard

import "strings"

const (
	// maxDepth bounds nesting so adversarial output cannot grow the scan state.
	maxDepth = 32
	// maxCandidates bounds how many opening braces are tried as object starts.
	maxCandidates = 64
)

type scanState int

const (
	stateObject scanState = iota
	stateString
	stateEscape
)

// FirstObject returns the first balanced {...} substring of text. Braces
// inside JSON string literals do not count toward the balance. When an
// opening brace never closes or nests deeper than maxDepth, scanning resumes
// at the next opening brace. Output whose quotes do not pair up (a key
// missing its opening quote, say) is rescanned counting every brace.
func FirstObject(text string) (string, bool) {
	if obj, ok := firstObject(text, true); ok {
		return obj, true
	}
	return firstObject(text, false)
}

func firstObject(text string, quoteAware bool) (string, bool) {
	offset := 0
	for range maxCandidates {
		start := strings.IndexByte(text[offset:], '{')
		if start < 0 {
			return "", false
		}
		start += offset
		if end, ok := matchObject(text, start, quoteAware); ok {
			return text[start : end+1], true
		}
		offset = start + 1
	}
	return "", false
}

// matchObject returns the index of the brace closing the object opened at start.
func matchObject(text string, start int, quoteAware bool) (int, bool) {
	state := stateObject
	depth := 0
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch state {
		case stateEscape:
			state = stateString
		case stateString:
			switch ch {
			case '\\':
				state = stateEscape
			case '"':
				state = stateObject
			}
		case stateObject:
			switch ch {
			case '"':
				if quoteAware {
					state = stateString
				}
			case '{':
				depth++
				if depth > maxDepth {
					return 0, false
				}
			case '}':
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}
