package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# linefs Configuration File
#
# Values can be overridden with LINEFS_* environment variables, for example
# LINEFS_SERVER_PORT=9100 or LINEFS_ADMIN_ALLOWED_IPS=127.0.0.1,10.0.0.0/8.
#
# Sizes accept human-readable units (16Mi, 1MB). Durations use Go syntax
# (30s, 5m). admin.allowed_ips entries are IP addresses or CIDR prefixes.

`

// InitConfig writes the default configuration to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the default configuration to path.
func InitConfigToPath(path string, force bool) error {
	return WriteInitialConfig(GetDefaultConfig(), path, force)
}

// WriteInitialConfig validates cfg and writes it, with the explanatory
// header, to path.
func WriteInitialConfig(cfg *Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("refusing to write invalid configuration: %w", err)
	}

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return writeConfigFile(filepath.Clean(path), append([]byte(configHeader), body...))
}
