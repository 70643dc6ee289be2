// Package prompt turns an explain request into the exact messages sent
// to the model. Templates and model parameters live in a YAML config so
// prompts can be tuned without touching code; the default config is
// compiled in.
package prompt

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cbroglie/mustache"
	"gopkg.in/yaml.v3"

	"asmexplain/internal/api"
	"asmexplain/internal/assembly"
	"asmexplain/internal/llm"
)

//go:embed config.yaml
var defaultConfig []byte

type modelConfig struct {
	Name        string  `yaml:"name"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type audienceMeta struct {
	Guidance string `yaml:"guidance"`
}

type explanationMeta struct {
	Focus            string `yaml:"focus"`
	UserPromptPhrase string `yaml:"user_prompt_phrase"`
}

type config struct {
	Model            modelConfig                `yaml:"model"`
	SystemPrompt     string                     `yaml:"system_prompt"`
	UserPrompt       string                     `yaml:"user_prompt"`
	AssistantPrefill string                     `yaml:"assistant_prefill"`
	AudienceLevels   map[string]audienceMeta    `yaml:"audience_levels"`
	ExplanationTypes map[string]explanationMeta `yaml:"explanation_types"`
}

// StructuredData is the JSON document handed to the model alongside the
// user prompt. Serialization is deterministic (fixed field order, maps
// sorted by key) because the serialized form feeds the cache key.
type StructuredData struct {
	Language           string          `json:"language"`
	Compiler           string          `json:"compiler"`
	SourceCode         string          `json:"sourceCode"`
	InstructionSet     string          `json:"instructionSet"`
	CompilationOptions []string        `json:"compilationOptions"`
	Assembly           []assembly.Item `json:"assembly"`
	// Truncated is true when the listing exceeded the line budget and
	// was run through the importance selector.
	Truncated bool `json:"truncated"`
	// OriginalLength is the pre-truncation line count. Present only
	// when Truncated is true.
	OriginalLength   int            `json:"originalLength,omitempty"`
	LabelDefinitions map[string]int `json:"labelDefinitions"`
}

// Prompt renders explain requests into chat requests.
type Prompt struct {
	cfg     config
	version string
}

// New parses a YAML prompt configuration.
func New(raw []byte) (*Prompt, error) {
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing prompt config: %w", err)
	}
	if cfg.Model.Name == "" {
		return nil, fmt.Errorf("prompt config: model.name is required")
	}
	if cfg.Model.MaxTokens <= 0 {
		return nil, fmt.Errorf("prompt config: model.max_tokens must be positive")
	}
	if cfg.SystemPrompt == "" || cfg.UserPrompt == "" {
		return nil, fmt.Errorf("prompt config: system_prompt and user_prompt are required")
	}

	// The config hash versions the cache: editing a template invalidates
	// every cached response built from the old one.
	sum := sha256.Sum256(raw)
	return &Prompt{cfg: cfg, version: hex.EncodeToString(sum[:])[:16]}, nil
}

// Default returns the compiled-in prompt configuration.
func Default() *Prompt {
	p, err := New(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt config is invalid: %v", err))
	}
	return p
}

// FromFile loads a prompt configuration from a YAML file.
func FromFile(path string) (*Prompt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt config: %w", err)
	}
	return New(raw)
}

// Model returns the configured model name.
func (p *Prompt) Model() string {
	return p.cfg.Model.Name
}

// Version returns the prompt config hash used for cache versioning.
func (p *Prompt) Version() string {
	return p.version
}

// StructuredData prepares the JSON document for a request, truncating the
// assembly listing with the importance selector when it exceeds budget.
func (p *Prompt) StructuredData(req *api.Request, budget int) *StructuredData {
	sd := &StructuredData{
		Language:           req.Language,
		Compiler:           req.Compiler,
		SourceCode:         req.Code,
		InstructionSet:     req.Arch(),
		CompilationOptions: req.CompilationOptions,
		Assembly:           req.Asm,
		LabelDefinitions:   req.LabelDefinitions,
	}
	if sd.CompilationOptions == nil {
		sd.CompilationOptions = []string{}
	}
	if sd.LabelDefinitions == nil {
		sd.LabelDefinitions = map[string]int{}
	}

	if len(req.Asm) > budget {
		sd.Assembly = assembly.Select(req.Asm, sd.LabelDefinitions, budget)
		sd.Truncated = true
		sd.OriginalLength = len(req.Asm)
	}
	return sd
}

// Messages renders the full chat request for a normalized, validated
// explain request. budget is the assembly line budget.
func (p *Prompt) Messages(req *api.Request, budget int) (*llm.ChatRequest, *StructuredData, error) {
	audienceMeta, ok := p.cfg.AudienceLevels[string(req.Audience)]
	if !ok {
		return nil, nil, fmt.Errorf("prompt config has no audience level %q", req.Audience)
	}
	explanationMeta, ok := p.cfg.ExplanationTypes[string(req.Explanation)]
	if !ok {
		return nil, nil, fmt.Errorf("prompt config has no explanation type %q", req.Explanation)
	}

	sd := p.StructuredData(req, budget)

	arch := req.Arch()
	system, err := mustache.Render(p.cfg.SystemPrompt, map[string]string{
		"arch":              arch,
		"language":          req.Language,
		"audience":          string(req.Audience),
		"audience_guidance": audienceMeta.Guidance,
		"explanation_type":  string(req.Explanation),
		"explanation_focus": explanationMeta.Focus,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rendering system prompt: %w", err)
	}

	user, err := mustache.Render(p.cfg.UserPrompt, map[string]string{
		"arch":               arch,
		"user_prompt_phrase": explanationMeta.UserPromptPhrase,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rendering user prompt: %w", err)
	}

	sdJSON, err := json.Marshal(sd)
	if err != nil {
		return nil, nil, fmt.Errorf("serializing structured data: %w", err)
	}

	messages := []llm.Message{
		{Role: "user", Content: []string{user, string(sdJSON)}},
	}
	if p.cfg.AssistantPrefill != "" {
		messages = append(messages, llm.Message{Role: "assistant", Content: []string{p.cfg.AssistantPrefill}})
	}

	return &llm.ChatRequest{
		Model:       p.cfg.Model.Name,
		MaxTokens:   p.cfg.Model.MaxTokens,
		Temperature: p.cfg.Model.Temperature,
		System:      system,
		Messages:    messages,
	}, sd, nil
}
