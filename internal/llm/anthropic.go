package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicClient sends prompts to the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
	// APIKey is the API key.
	APIKey string
	// ExtraHeaders are additional HTTP headers.
	ExtraHeaders map[string]string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	var opts []option.RequestOption

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	for k, v := range cfg.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

// Provider returns "anthropic".
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

var llmTracer = otel.Tracer("asm-explain/llm")

// Complete sends the chat request to the Anthropic API.
func (c *AnthropicClient) Complete(ctx context.Context, req *ChatRequest) (*Completion, error) {
	// Start a GenAI generation span following OTel GenAI semantic
	// conventions. Span name: "{operation} {model}".
	ctx, span := llmTracer.Start(ctx, "chat "+req.Model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.provider.name", "anthropic"),
			attribute.String("gen_ai.request.model", req.Model),
			attribute.Int64("gen_ai.request.max_tokens", req.MaxTokens),
		),
	)
	defer span.End()

	recordInputMessages(span, req)

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, text := range m.Content {
			blocks = append(blocks, anthropic.NewTextBlock(text))
		}
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		default:
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: messages,
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	if len(resp.Content) == 0 {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return nil, fmt.Errorf("anthropic API returned empty response")
	}

	rawText := resp.Content[0].Text

	span.SetAttributes(
		attribute.String("gen_ai.response.model", req.Model),
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
	)
	if string(resp.StopReason) != "" {
		span.SetAttributes(attribute.StringSlice("gen_ai.response.finish_reasons", []string{string(resp.StopReason)}))
	}
	recordOutputMessage(span, rawText)

	return &Completion{
		Text: strings.TrimSpace(rawText),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// recordInputMessages attaches the full prompt to the span as JSON.
func recordInputMessages(span trace.Span, req *ChatRequest) {
	input := []map[string]any{
		{"role": "system", "content": req.System},
	}
	for _, m := range req.Messages {
		input = append(input, map[string]any{"role": m.Role, "content": strings.Join(m.Content, "\n")})
	}
	if inputJSON, err := json.Marshal(input); err == nil {
		span.SetAttributes(attribute.String("gen_ai.input.messages", string(inputJSON)))
	}
}

// recordOutputMessage attaches the model reply to the span as JSON.
func recordOutputMessage(span trace.Span, text string) {
	output := []map[string]string{
		{"role": "assistant", "content": text},
	}
	if outputJSON, err := json.Marshal(output); err == nil {
		span.SetAttributes(attribute.String("gen_ai.output.messages", string(outputJSON)))
	}
}
