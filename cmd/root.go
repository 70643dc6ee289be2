package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"asmexplain/internal/config"
	"asmexplain/internal/llm"
	"asmexplain/internal/prompt"
)

// Version is injected by the linker at release time.
var Version = "dev"

var (
	// Global flags. Empty means "use config/env".
	flagProvider   string
	flagBaseURL    string
	flagAPIKey     string
	flagPromptFile string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "asm-explain",
	Short: "Explain compiler-generated assembly using an LLM",
	Long: `asm-explain turns compiler output into plain-language explanations.

It takes source code together with the assembly a compiler produced for
it, selects the instructive parts of the listing, and asks an LLM to
explain how the source maps to the machine code. Responses are cached
by content hash so identical requests never pay for a second completion.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Level(level)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider: anthropic, openai (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "override LLM API base URL")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "override LLM API key")
	rootCmd.PersistentFlags().StringVar(&flagPromptFile, "prompt-file", "", "override the built-in prompt configuration")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

// loadConfig loads configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagPromptFile != "" {
		cfg.PromptFile = flagPromptFile
	}
	return cfg, nil
}

// newClient builds the LLM client for the configured provider.
func newClient(cfg *config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key found. Set ASM_EXPLAIN_API_KEY, ANTHROPIC_API_KEY, or OPENAI_API_KEY")
	}

	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}), nil
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, openai)", cfg.Provider)
	}
}

// loadPrompt returns the compiled-in prompt or one loaded from cfg.PromptFile.
func loadPrompt(cfg *config.Config) (*prompt.Prompt, error) {
	if cfg.PromptFile == "" {
		return prompt.Default(), nil
	}
	return prompt.FromFile(cfg.PromptFile)
}
