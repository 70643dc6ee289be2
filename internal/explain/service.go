// Package explain wires the whole pipeline together: validate the
// request, render the prompt, consult the response cache, call the
// model, and account tokens and cost.
package explain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"asmexplain/internal/api"
	"asmexplain/internal/assembly"
	"asmexplain/internal/cache"
	"asmexplain/internal/llm"
	"asmexplain/internal/modelcost"
	telem "asmexplain/internal/otel"
	"asmexplain/internal/prompt"
)

// ErrInvalidRequest marks failures caused by the request itself; the
// HTTP layer maps these to 400 instead of 500.
var ErrInvalidRequest = errors.New("invalid request")

// Config assembles a Service from its collaborators.
type Config struct {
	Client  llm.Client
	Prompt  *prompt.Prompt
	Cache   cache.Provider
	Metrics *telem.Metrics

	// MaxAssemblyLines is the selector budget. Zero means
	// assembly.DefaultMaxLines.
	MaxAssemblyLines int
}

// Service processes explain requests.
type Service struct {
	client   llm.Client
	prompt   *prompt.Prompt
	cache    cache.Provider
	metrics  *telem.Metrics
	maxLines int
}

// NewService creates a Service. A nil Cache disables caching and a nil
// Metrics disables metric recording.
func NewService(cfg Config) *Service {
	c := cfg.Cache
	if c == nil {
		c = cache.Noop{}
	}
	maxLines := cfg.MaxAssemblyLines
	if maxLines == 0 {
		maxLines = assembly.DefaultMaxLines
	}
	return &Service{
		client:   cfg.Client,
		prompt:   cfg.Prompt,
		cache:    c,
		metrics:  cfg.Metrics,
		maxLines: maxLines,
	}
}

// Explain processes one request end to end.
func (s *Service) Explain(ctx context.Context, req *api.Request) (*api.Response, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	chatReq, sd, err := s.prompt.Messages(req, s.maxLines)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRequest(ctx, req.Language, req.Arch())
	if sd.Truncated {
		log.Debug().
			Int("original", sd.OriginalLength).
			Int("selected", len(sd.Assembly)).
			Msg("assembly listing truncated")
	}

	key := cache.Key(chatReq, s.prompt.Version())

	if !req.BypassCache {
		if resp := s.cachedResponse(ctx, key); resp != nil {
			s.metrics.RecordCacheHit(ctx)
			return resp, nil
		}
	}
	s.metrics.RecordCacheMiss(ctx)

	completion, err := s.client.Complete(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	usage := completion.Usage
	resp := &api.Response{
		Status:      "success",
		Explanation: completion.Text,
		Model:       chatReq.Model,
		Usage: &api.TokenUsage{
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			TotalTokens:  usage.InputTokens + usage.OutputTokens,
		},
		Cost: s.costBreakdown(chatReq.Model, usage),
	}

	s.metrics.RecordUsage(ctx, s.client.Provider(), chatReq.Model,
		usage.InputTokens, usage.OutputTokens, resp.Cost.TotalCost)

	s.storeResponse(ctx, key, resp)
	return resp, nil
}

// Options returns the option listing served on the discovery endpoint.
func (s *Service) Options() api.AvailableOptions {
	return api.Options()
}

// cachedResponse returns a previously cached response for key, or nil.
func (s *Service) cachedResponse(ctx context.Context, key string) *api.Response {
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}
	var resp api.Response
	if err := json.Unmarshal(data, &resp); err != nil || resp.Status != "success" {
		log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cached response")
		return nil
	}
	resp.Cached = true
	return &resp
}

// storeResponse caches a fresh response. Best effort: failures are
// logged by the provider and never fail the request.
func (s *Service) storeResponse(ctx context.Context, key string, resp *api.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Warn().Err(err).Msg("serializing response for cache failed")
		return
	}
	_ = s.cache.Put(ctx, key, data)
}

// costBreakdown prices the call. An unknown model yields a zero cost
// with a warning rather than a failed request.
func (s *Service) costBreakdown(model string, usage llm.Usage) *api.CostBreakdown {
	perInput, perOutput, err := modelcost.PerToken(model)
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("no pricing data for model")
		return &api.CostBreakdown{}
	}
	inputCost := float64(usage.InputTokens) * perInput
	outputCost := float64(usage.OutputTokens) * perOutput
	return &api.CostBreakdown{
		InputCost:  round6(inputCost),
		OutputCost: round6(outputCost),
		TotalCost:  round6(inputCost + outputCost),
	}
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
