package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/linefs/internal/cli/prompt"
	"github.com/marmos91/linefs/pkg/config"
	"github.com/marmos91/linefs/pkg/policy"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample linefs configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/linefs/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  linefs init

  # Initialize with custom path
  linefs init --config /etc/linefs/config.yaml

  # Answer a few questions instead of taking every default
  linefs init --interactive

  # Force overwrite existing config
  linefs init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for the base path, port and admin addresses")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.GetDefaultConfig()
	if initInteractive {
		if err := promptInitialConfig(cfg); err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("init aborted")
			}
			return err
		}
	}

	if err := config.WriteInitialConfig(cfg, configPath, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintln(out, "  2. Start the server with: linefs start")
	_, _ = fmt.Fprintf(out, "  3. Or specify custom config: linefs start --config %s\n", configPath)
	return nil
}

// promptInitialConfig asks for the settings most deployments change.
func promptInitialConfig(cfg *config.Config) error {
	basePath, err := prompt.InputWithValidation("Files directory", cfg.Files.BasePath, func(s string) error {
		if s == "" {
			return fmt.Errorf("a directory is required")
		}
		return nil
	})
	if err != nil {
		return err
	}

	port, err := prompt.InputPort("Line protocol port", cfg.Server.Port)
	if err != nil {
		return err
	}

	allowed, err := prompt.InputList("Admin addresses (IPs or CIDRs, comma separated)", cfg.Admin.AllowedIPs, validateAllowEntry)
	if err != nil {
		return err
	}

	enableAPI, err := prompt.Confirm("Enable the HTTP control API", cfg.API.Enabled)
	if err != nil {
		return err
	}

	cfg.Files.BasePath = basePath
	cfg.Server.Port = port
	cfg.Admin.AllowedIPs = allowed
	cfg.API.Enabled = enableAPI
	return nil
}

func validateAllowEntry(entry string) error {
	_, err := policy.NewAllowList([]string{entry})
	return err
}
