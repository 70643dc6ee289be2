// Package llm sends assembled prompts to a large-language-model API and
// returns the generated text with token accounting. Providers only move
// bytes; everything the model is asked sits in the ChatRequest built by
// the prompt layer.
package llm

import "context"

// Message is one provider-neutral chat message. Content holds one or
// more text blocks.
type Message struct {
	Role    string   `json:"role"`
	Content []string `json:"content"`
}

// ChatRequest is everything that determines a model response. Its
// canonical JSON form also feeds the response cache key, so field order
// and content must stay deterministic for identical inputs.
type ChatRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int64     `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []Message `json:"messages"`
}

// Usage is the token consumption reported by the provider.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Completion is the model's reply.
type Completion struct {
	// Text is the generated text with surrounding whitespace trimmed.
	Text string
	// Usage is the provider-reported token usage.
	Usage Usage
}

// Client sends a chat request to a model API.
type Client interface {
	// Complete sends the request and returns the model's reply.
	Complete(ctx context.Context, req *ChatRequest) (*Completion, error)

	// Provider returns the provider name (e.g., "anthropic", "openai").
	Provider() string
}
