package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "asm-explain"

// Metrics holds all OTEL metric instruments for the explain service.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Request counter (partitioned by language + instruction set via attributes)
	Requests metric.Int64Counter

	// LLM token and cost counters (partitioned by provider + model)
	InputTokens  metric.Int64Counter
	OutputTokens metric.Int64Counter
	Cost         metric.Float64Counter

	// Response cache counters
	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Requests, err = meter.Int64Counter("explain.requests",
		metric.WithDescription("Total explain requests processed"))
	if err != nil {
		return nil, err
	}

	m.InputTokens, err = meter.Int64Counter("llm.tokens.input",
		metric.WithDescription("Total LLM input tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.OutputTokens, err = meter.Int64Counter("llm.tokens.output",
		metric.WithDescription("Total LLM output tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.Cost, err = meter.Float64Counter("llm.cost",
		metric.WithDescription("Total LLM spend in USD"),
		metric.WithUnit("USD"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("response_cache.hits",
		metric.WithDescription("Number of explain responses served from the cache"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("response_cache.misses",
		metric.WithDescription("Number of explain requests that required a model call"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRequest records one processed request.
func (m *Metrics) RecordRequest(ctx context.Context, language, instructionSet string) {
	if m == nil {
		return
	}
	m.Requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("request.language", language),
		attribute.String("request.instruction_set", instructionSet),
	))
}

// RecordUsage records token consumption and cost for one model call.
func (m *Metrics) RecordUsage(ctx context.Context, provider, model string, input, output int64, cost float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)
	m.InputTokens.Add(ctx, input, attrs)
	m.OutputTokens.Add(ctx, output, attrs)
	m.Cost.Add(ctx, cost, attrs)
}

// RecordCacheHit records a response served from the cache.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a request that required a model call.
func (m *Metrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1)
}
