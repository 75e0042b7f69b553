package llm

import (
	"context"
	"encoding/json"
	"strings"

	"uniscan/internal/errors"
	"uniscan/ports"
)

// MsgParseFailure is shown to operators when a reply is not usable JSON
const MsgParseFailure = "Errore nel parsing della risposta AI. Riprova."

// StructuredClient provides typed JSON responses from LLM calls
type StructuredClient[T any] struct {
	Client    ports.LLMClient
	Model     string
	MaxTokens int
}

// NewStructuredClient creates a new structured client
func NewStructuredClient[T any](client ports.LLMClient, model string, maxTokens int) *StructuredClient[T] {
	return &StructuredClient[T]{Client: client, Model: model, MaxTokens: maxTokens}
}

// GetJSON sends the prompt and decodes the reply into T. Transport failures
// and undecodable replies are both remote failures.
func (c *StructuredClient[T]) GetJSON(ctx context.Context, system, prompt string) (*T, error) {
	content, err := c.Client.ChatCompletion(ctx, c.Model, system, prompt, c.MaxTokens)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.RemoteFailure("Tempo massimo di analisi superato. Riprova.", ctx.Err())
		}
		return nil, errors.RemoteFailure("Il servizio di analisi non è raggiungibile. Riprova.", err)
	}
	return DecodeJSON[T](content)
}

// DecodeJSON cleans a model reply and unmarshals it into T. The reply must
// hold a non-empty JSON object.
func DecodeJSON[T any](content string) (*T, error) {
	cleaned := CleanJSONContent(content)
	if cleaned == "" || cleaned == "{}" {
		return nil, errors.RemoteFailure(MsgParseFailure, errors.InvalidInput("empty model reply"))
	}
	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, errors.RemoteFailure(MsgParseFailure, err)
	}
	return &out, nil
}

// CleanJSONContent strips markdown fences and any chatter around the
// outermost JSON object.
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}
