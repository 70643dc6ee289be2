// Package config loads asm-explain configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (ASM_EXPLAIN_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .asm-explain.yaml in current directory
//  2. ~/.config/asm-explain/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all asm-explain configuration.
type Config struct {
	// LLM settings
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`

	// PromptFile overrides the compiled-in prompt configuration.
	PromptFile string `yaml:"prompt_file"`

	// HTTP server
	Addr string `yaml:"addr"`

	// Assembly truncation
	MaxAssemblyLines int `yaml:"max_assembly_lines"`

	// Response cache
	CacheBackend string `yaml:"cache_backend"` // "none", "memory", "s3"
	CacheBucket  string `yaml:"cache_bucket"`
	CachePrefix  string `yaml:"cache_prefix"`
	CacheTTL     string `yaml:"cache_ttl"` // Go duration string, e.g. "1h"; memory backend only

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	CacheTTLDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Provider:         "anthropic",
		Addr:             ":8080",
		MaxAssemblyLines: 300,
		CacheBackend:     "none",
		CachePrefix:      "explain-cache/",
		CacheTTL:         "1h",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	mergeEnv(cfg)

	var err error
	cfg.CacheTTLDuration, err = parseDurationOrDisable(cfg.CacheTTL, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL %q: %w", cfg.CacheTTL, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".asm-explain.yaml"); err == nil {
		return ".asm-explain.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "asm-explain", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.APIKey != "" {
		cfg.APIKey = file.APIKey
	}
	if file.PromptFile != "" {
		cfg.PromptFile = file.PromptFile
	}
	if file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if file.MaxAssemblyLines > 0 {
		cfg.MaxAssemblyLines = file.MaxAssemblyLines
	}
	if file.CacheBackend != "" {
		cfg.CacheBackend = file.CacheBackend
	}
	if file.CacheBucket != "" {
		cfg.CacheBucket = file.CacheBucket
	}
	if file.CachePrefix != "" {
		cfg.CachePrefix = file.CachePrefix
	}
	if file.CacheTTL != "" {
		cfg.CacheTTL = file.CacheTTL
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("ASM_EXPLAIN_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("ASM_EXPLAIN_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("ASM_EXPLAIN_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("ASM_EXPLAIN_PROMPT_FILE"); v != "" {
		cfg.PromptFile = v
	}
	if v := os.Getenv("ASM_EXPLAIN_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ASM_EXPLAIN_MAX_ASSEMBLY_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAssemblyLines = n
		}
	}
	if v := os.Getenv("ASM_EXPLAIN_CACHE_BACKEND"); v != "" {
		cfg.CacheBackend = v
	}
	if v := os.Getenv("ASM_EXPLAIN_CACHE_BUCKET"); v != "" {
		cfg.CacheBucket = v
	}
	if v := os.Getenv("ASM_EXPLAIN_CACHE_PREFIX"); v != "" {
		cfg.CachePrefix = v
	}
	if v := os.Getenv("ASM_EXPLAIN_CACHE_TTL"); v != "" {
		cfg.CacheTTL = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}

	// API key fallbacks
	if cfg.APIKey == "" {
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.APIKey = v
		}
	}
	if cfg.APIKey == "" {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.APIKey = v
		}
	}
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
