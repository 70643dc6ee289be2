package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"asmexplain/internal/api"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List accepted audience levels and explanation types",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(api.Options())
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}
