package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/linefs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the linefs configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  linefs config validate

  # Validate specific config file
  linefs config validate --config /etc/linefs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Line protocol:   %s:%d\n", hostOrAny(cfg.Server.Host), cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Files:           %s\n", cfg.Files.BasePath)
	_, _ = fmt.Fprintf(out, "  Admin entries:   %d\n", len(cfg.Admin.AllowedIPs))
	if cfg.API.Enabled {
		_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.API.Port)
	} else {
		_, _ = fmt.Fprintln(out, "  API:             disabled")
	}
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

// configWarnings reports settings that are valid but probably unintended.
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	if len(cfg.Admin.AllowedIPs) == 0 {
		warnings = append(warnings, "admin.allowed_ips is empty - no session will be privileged")
	}
	if info, err := os.Stat(cfg.Files.BasePath); err == nil && !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("files.base_path %s is not a directory", cfg.Files.BasePath))
	}
	if cfg.Audit.Path == "" {
		warnings = append(warnings, "audit.path is empty - MESSAGE commands will not be recorded")
	}
	if cfg.Metrics.Enabled && !cfg.API.Enabled {
		warnings = append(warnings, "metrics are enabled but the API server that exposes /metrics is disabled")
	}

	return warnings
}

func hostOrAny(host string) string {
	if host == "" {
		return "0.0.0.0"
	}
	return host
}
