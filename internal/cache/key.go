package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"asmexplain/internal/llm"
)

// keyData is the canonical representation of everything that affects a
// model response. Field order is fixed so the JSON form is deterministic.
type keyData struct {
	Model       string        `json:"model"`
	MaxTokens   int64         `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system"`
	Messages    []llm.Message `json:"messages"`
	// PromptVersion is the prompt config hash, so template edits
	// invalidate responses built from the old templates.
	PromptVersion string `json:"prompt_version"`
}

// Key derives the cache key for a fully rendered chat request.
func Key(req *llm.ChatRequest, promptVersion string) string {
	data, err := json.Marshal(keyData{
		Model:         req.Model,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		System:        req.System,
		Messages:      req.Messages,
		PromptVersion: promptVersion,
	})
	if err != nil {
		// ChatRequest contains only strings and numbers; Marshal
		// cannot fail on it.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
