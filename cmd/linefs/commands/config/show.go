package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/linefs/internal/cli/output"
	"github.com/marmos91/linefs/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration linefs would run with: the file, then
LINEFS_* environment overrides, then defaults.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show the effective configuration as YAML
  linefs config show

  # Show as JSON
  linefs config show --output json

  # Show specific config file
  linefs config show --config /etc/linefs/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
