package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir switches to dir for the duration of the test, restoring the
// previous working directory on cleanup. (testing.T.Chdir needs Go 1.24.)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

// clearEnv unsets every variable Load consults so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ASM_EXPLAIN_PROVIDER",
		"ASM_EXPLAIN_BASE_URL",
		"ASM_EXPLAIN_API_KEY",
		"ASM_EXPLAIN_PROMPT_FILE",
		"ASM_EXPLAIN_ADDR",
		"ASM_EXPLAIN_MAX_ASSEMBLY_LINES",
		"ASM_EXPLAIN_CACHE_BACKEND",
		"ASM_EXPLAIN_CACHE_BUCKET",
		"ASM_EXPLAIN_CACHE_PREFIX",
		"ASM_EXPLAIN_CACHE_TTL",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_HEADERS",
		"ANTHROPIC_API_KEY",
		"OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "anthropic")
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.MaxAssemblyLines != 300 {
		t.Errorf("MaxAssemblyLines = %d, want 300", cfg.MaxAssemblyLines)
	}
	if cfg.CacheBackend != "none" {
		t.Errorf("CacheBackend = %q, want %q", cfg.CacheBackend, "none")
	}
}

func TestLoadDefaultsWithoutFileOrEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
	}
	if cfg.CacheTTLDuration != time.Hour {
		t.Errorf("CacheTTLDuration = %v, want 1h", cfg.CacheTTLDuration)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	contents := `provider: openai
base_url: https://example.test/v1
addr: ":9999"
max_assembly_lines: 120
cache_backend: memory
cache_ttl: 30m
otel_endpoint: https://otel.example.test
`
	if err := os.WriteFile(filepath.Join(dir, ".asm-explain.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != ".asm-explain.yaml" {
		t.Errorf("ConfigFile = %q, want .asm-explain.yaml", cfg.ConfigFile)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.BaseURL != "https://example.test/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.MaxAssemblyLines != 120 {
		t.Errorf("MaxAssemblyLines = %d, want 120", cfg.MaxAssemblyLines)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("CacheBackend = %q, want memory", cfg.CacheBackend)
	}
	if cfg.CacheTTLDuration != 30*time.Minute {
		t.Errorf("CacheTTLDuration = %v, want 30m", cfg.CacheTTLDuration)
	}
	if cfg.OTELEndpoint != "https://otel.example.test" {
		t.Errorf("OTELEndpoint = %q", cfg.OTELEndpoint)
	}
	// File values must not clobber defaults it does not set.
	if cfg.CachePrefix != "explain-cache/" {
		t.Errorf("CachePrefix = %q, want default", cfg.CachePrefix)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	contents := "provider: openai\naddr: \":9999\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".asm-explain.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ASM_EXPLAIN_PROVIDER", "anthropic")
	t.Setenv("ASM_EXPLAIN_ADDR", ":7070")
	t.Setenv("ASM_EXPLAIN_MAX_ASSEMBLY_LINES", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic (env)", cfg.Provider)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want :7070 (env)", cfg.Addr)
	}
	if cfg.MaxAssemblyLines != 50 {
		t.Errorf("MaxAssemblyLines = %d, want 50 (env)", cfg.MaxAssemblyLines)
	}
}

func TestAPIKeyFallbacks(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-ant-test" {
		t.Errorf("APIKey = %q, want ANTHROPIC_API_KEY fallback", cfg.APIKey)
	}

	// Explicit key beats the fallback.
	t.Setenv("ASM_EXPLAIN_API_KEY", "sk-explicit")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-explicit" {
		t.Errorf("APIKey = %q, want sk-explicit", cfg.APIKey)
	}
}

func TestCacheTTLDisable(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	for _, v := range []string{"0", "off", "disable"} {
		t.Setenv("ASM_EXPLAIN_CACHE_TTL", v)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load with cache_ttl=%q: %v", v, err)
		}
		if cfg.CacheTTLDuration != 0 {
			t.Errorf("cache_ttl=%q: CacheTTLDuration = %v, want 0", v, cfg.CacheTTLDuration)
		}
	}
}

func TestInvalidCacheTTL(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("ASM_EXPLAIN_CACHE_TTL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatal("Load: expected error for invalid cache TTL")
	}
}

func TestMalformedConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, ".asm-explain.yaml"), []byte("provider: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load: expected error for malformed YAML")
	}
}
