package llm

import (
	"context"
	"strings"
	"sync"
)

// MockLLMClient is a scripted LLM client for tests and the demo mode.
// Replies are matched by a marker contained in the prompt; Default answers
// everything else.
type MockLLMClient struct {
	mu      sync.Mutex
	Replies map[string]string
	Errors  map[string]error
	Default string
	Error   error
	Calls   []string
	// Block, when set, is waited on (or ctx) before replying
	Block chan struct{}
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, prompt)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.Error != nil {
		return "", m.Error
	}
	for marker, err := range m.Errors {
		if strings.Contains(prompt, marker) {
			return "", err
		}
	}
	for marker, reply := range m.Replies {
		if strings.Contains(prompt, marker) {
			return reply, nil
		}
	}
	return m.Default, nil
}

// CallCount returns how many completions were requested
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
