package ports

import "context"

// LLMClient interface for LLM providers
type LLMClient interface {
	// ChatCompletion sends one system and one user message and returns the reply text
	ChatCompletion(ctx context.Context, model string, system string, prompt string, maxTokens int) (string, error)
}
