// Package api defines the wire types of the explain service:
// requests, responses, option metadata, and their validation rules.
package api

import (
	"fmt"

	"asmexplain/internal/assembly"
)

const (
	// MaxCodeLength caps the source code accepted in a request.
	MaxCodeLength = 10000
	// MaxAsmLength caps the total assembly text accepted in a request.
	MaxAsmLength = 20000
)

// Request is the body of an explain call.
type Request struct {
	// Language is the source language, e.g. "c++" or "rust".
	Language string `json:"language"`
	// Compiler is the compiler identifier, e.g. "g112" or "clang1500".
	Compiler string `json:"compiler"`
	// Code is the original source code.
	Code string `json:"code"`
	// CompilationOptions are the compiler flags used.
	CompilationOptions []string `json:"compilationOptions,omitempty"`
	// InstructionSet is the target architecture, e.g. "amd64" or "arm64".
	InstructionSet string `json:"instructionSet,omitempty"`
	// Asm is the compiler's assembly listing.
	Asm []assembly.Item `json:"asm"`
	// LabelDefinitions maps label names to the zero-based index in Asm
	// where each label is defined.
	LabelDefinitions map[string]int `json:"labelDefinitions,omitempty"`
	// Audience selects the assumed reader expertise. Defaults to beginner.
	Audience AudienceLevel `json:"audience,omitempty"`
	// Explanation selects what the explanation focuses on. Defaults to
	// assembly.
	Explanation ExplanationType `json:"explanation,omitempty"`
	// BypassCache skips the response cache for this request.
	BypassCache bool `json:"bypassCache,omitempty"`
}

// Arch returns the instruction set, defaulting to "unknown".
func (r *Request) Arch() string {
	if r.InstructionSet == "" {
		return "unknown"
	}
	return r.InstructionSet
}

// Normalize fills in defaulted enum fields.
func (r *Request) Normalize() {
	if r.Audience == "" {
		r.Audience = AudienceBeginner
	}
	if r.Explanation == "" {
		r.Explanation = ExplanationAssembly
	}
}

// Validate checks the request against the documented limits.
func (r *Request) Validate() error {
	if r.Language == "" {
		return fmt.Errorf("language is required")
	}
	if r.Compiler == "" {
		return fmt.Errorf("compiler is required")
	}
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	if len(r.Code) > MaxCodeLength {
		return fmt.Errorf("code exceeds %d characters", MaxCodeLength)
	}
	total := 0
	for _, item := range r.Asm {
		total += len(item.Text)
	}
	if total > MaxAsmLength {
		return fmt.Errorf("assembly exceeds %d characters", MaxAsmLength)
	}
	if !r.Audience.Valid() {
		return fmt.Errorf("unknown audience %q", r.Audience)
	}
	if !r.Explanation.Valid() {
		return fmt.Errorf("unknown explanation type %q", r.Explanation)
	}
	return nil
}

// TokenUsage reports token consumption for one model call.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// CostBreakdown reports the USD cost of one model call.
type CostBreakdown struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// Response is the result of an explain call.
type Response struct {
	// Status is "success" or "error".
	Status string `json:"status"`
	// Explanation is the generated explanation text.
	Explanation string `json:"explanation,omitempty"`
	// Message describes the failure. Only present on error.
	Message string `json:"message,omitempty"`
	// Model is the model that produced the explanation.
	Model string `json:"model,omitempty"`
	// Usage is the token usage for this call.
	Usage *TokenUsage `json:"usage,omitempty"`
	// Cost is the cost breakdown for this call.
	Cost *CostBreakdown `json:"cost,omitempty"`
	// Cached is true when the response was served from the cache.
	Cached bool `json:"cached,omitempty"`
}

// ErrorResponse builds an error-status response.
func ErrorResponse(err error) *Response {
	return &Response{Status: "error", Message: err.Error()}
}

// OptionDescription describes one accepted value of a request option.
type OptionDescription struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// AvailableOptions lists the accepted audience levels and explanation types.
type AvailableOptions struct {
	Audience    []OptionDescription `json:"audience"`
	Explanation []OptionDescription `json:"explanation"`
}

// Options returns the option listing served on the discovery endpoint.
func Options() AvailableOptions {
	out := AvailableOptions{}
	for _, level := range AudienceLevels() {
		out.Audience = append(out.Audience, OptionDescription{
			Value:       string(level),
			Description: level.Description(),
		})
	}
	for _, typ := range ExplanationTypes() {
		out.Explanation = append(out.Explanation, OptionDescription{
			Value:       string(typ),
			Description: typ.Description(),
		})
	}
	return out
}
