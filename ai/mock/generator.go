package mock

import (
	"context"
	"sync"
	"sync/atomic"
)

// Call records the arguments of one Generate invocation.
type Call struct {
	Prompt string
	System string
}

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt, system string) (string, error)

	// Response is returned when GenerateFunc is nil.
	Response string

	mu        sync.Mutex
	calls     []Call
	callCount atomic.Int64
}

// NewMockGenerator creates a generator that returns response for every prompt.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// WithGenerateFunc sets custom Generate behavior.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, prompt, system string) (string, error)) *MockGenerator {
	m.GenerateFunc = fn
	return m
}

// Generate records the call and returns the configured output.
func (m *MockGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, System: system})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, system)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Response, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Calls returns a copy of the recorded calls in arrival order.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Reset clears recorded calls and custom behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
	m.callCount.Store(0)
	m.GenerateFunc = nil
}
