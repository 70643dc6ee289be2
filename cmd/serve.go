package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"asmexplain/internal/cache"
	"asmexplain/internal/config"
	"asmexplain/internal/explain"
	telem "asmexplain/internal/otel"
	"asmexplain/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the explanation HTTP service",
	Long: `Start the HTTP server that accepts explanation requests.

POST / with a JSON request body to get an explanation. GET / lists the
accepted audience levels and explanation types. GET /healthz reports
liveness.

Configuration is loaded from .asm-explain.yaml or environment variables
(ASM_EXPLAIN_* prefix). Flags override both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Addr = flagAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		telem.Version = Version
		tel, err := telem.Init(ctx, telem.Config{
			Endpoint: cfg.OTELEndpoint,
			Headers:  cfg.OTELHeaders,
		})
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer tel.Shutdown(context.Background())

		client, err := newClient(cfg)
		if err != nil {
			return err
		}

		pr, err := loadPrompt(cfg)
		if err != nil {
			return err
		}

		store, err := newCache(ctx, cfg)
		if err != nil {
			return err
		}

		svc := explain.NewService(explain.Config{
			Client:           client,
			Prompt:           pr,
			Cache:            store,
			Metrics:          tel.Metrics,
			MaxAssemblyLines: cfg.MaxAssemblyLines,
		})

		log.Info().
			Str("addr", cfg.Addr).
			Str("provider", client.Provider()).
			Str("model", pr.Model()).
			Str("prompt_version", pr.Version()).
			Str("cache", cfg.CacheBackend).
			Str("config_file", cfg.ConfigFile).
			Msg("starting server")

		return server.Run(ctx, cfg.Addr, svc)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default: from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

// newCache builds the configured cache backend.
func newCache(ctx context.Context, cfg *config.Config) (cache.Provider, error) {
	switch cfg.CacheBackend {
	case "", "none":
		return cache.Noop{}, nil
	case "memory":
		return cache.NewMemory(cfg.CacheTTLDuration), nil
	case "s3":
		if cfg.CacheBucket == "" {
			return nil, fmt.Errorf("cache_backend s3 requires cache_bucket")
		}
		return cache.NewS3(ctx, cfg.CacheBucket, cfg.CachePrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (supported: none, memory, s3)", cfg.CacheBackend)
	}
}
