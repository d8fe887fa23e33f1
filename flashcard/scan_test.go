package flashcard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose around object", `Sure! {"Question": "q", "Answer": "a"} Hope that helps.`, `{"Question": "q", "Answer": "a"}`, true},
		{"nested braces", `x {"a": {"b": 1}} y`, `{"a": {"b": 1}}`, true},
		{"braces in strings", `{"Answer": "use } and { freely"}`, `{"Answer": "use } and { freely"}`, true},
		{"escaped quote", `{"Answer": "say \"}\" now"}`, `{"Answer": "say \"}\" now"}`, true},
		{"first of two", `{"n": 1} {"n": 2}`, `{"n": 1}`, true},
		{"unclosed then valid", `{ broken { "n": 2 }`, `{ "n": 2 }`, true},
		{"unpaired quote falls back", `{Question": "q", "Answer": "a"}`, `{Question": "q", "Answer": "a"}`, true},
		{"no braces", `no json here`, "", false},
		{"only opening", `{"a": 1`, "", false},
		{"closing before opening", `} {`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstObject(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstObjectDepthBound(t *testing.T) {
	deep := strings.Repeat("{", maxDepth+1) + strings.Repeat("}", maxDepth+1)
	_, ok := FirstObject(deep)
	// Every candidate start nests too deep until the innermost maxDepth levels.
	assert.True(t, ok)

	tooDeep := strings.Repeat("{", maxCandidates+maxDepth+2)
	_, ok = FirstObject(tooDeep)
	assert.False(t, ok)
}
