package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"asmexplain/internal/api"
	"asmexplain/internal/explain"
)

var explainCmd = &cobra.Command{
	Use:   "explain [request.json]",
	Short: "Explain a single compilation from a JSON request",
	Long: `Run one explanation without starting the server.

Reads an explanation request (the same JSON body the HTTP endpoint
accepts) from the given file, or from stdin when no file is given, and
prints the response as indented JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
		} else {
			raw, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading request: %w", err)
		}

		var req api.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("parsing request: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := newClient(cfg)
		if err != nil {
			return err
		}

		pr, err := loadPrompt(cfg)
		if err != nil {
			return err
		}

		svc := explain.NewService(explain.Config{
			Client:           client,
			Prompt:           pr,
			MaxAssemblyLines: cfg.MaxAssemblyLines,
		})

		resp, err := svc.Explain(cmd.Context(), &req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
