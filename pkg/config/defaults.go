package config

import (
	"strings"
	"time"

	"github.com/marmos91/linefs/internal/bytesize"
	"github.com/marmos91/linefs/pkg/api"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Booleans that default to true (api.enabled, telemetry.insecure) are
//     only defaulted by GetDefaultConfig and the viper defaults in Load
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyServerDefaults(&cfg.Server)
	applyFilesDefaults(&cfg.Files)
	applyAdminDefaults(&cfg.Admin)
	applyMonitoringDefaults(&cfg.Monitoring)
	cfg.API.ApplyDefaults()
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyServerDefaults sets line protocol server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 100
	}
	if cfg.MaxLineSize == 0 {
		cfg.MaxLineSize = 16 * bytesize.MiB
	}
	if cfg.Timeouts.Privileged == 0 {
		cfg.Timeouts.Privileged = 5 * time.Minute
	}
	if cfg.Timeouts.Restricted == 0 {
		cfg.Timeouts.Restricted = 60 * time.Second
	}
	if cfg.Timeouts.Write == 0 {
		cfg.Timeouts.Write = 10 * time.Second
	}
	// RestrictedDelay defaults to 0 (disabled)
}

func applyFilesDefaults(cfg *FilesConfig) {
	if cfg.BasePath == "" {
		cfg.BasePath = "./files"
	}
}

// applyAdminDefaults privileges loopback when no allow-list is configured.
// An explicit empty list is preserved.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.AllowedIPs == nil {
		cfg.AllowedIPs = []string{"127.0.0.1", "::1"}
	}
}

func applyMonitoringDefaults(cfg *MonitoringConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.SummaryInterval == 0 {
		cfg.SummaryInterval = 30 * time.Second
	}
	if cfg.StatsLog == "" {
		cfg.StatsLog = "./logs/server_stats.txt"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Insecure: true,
		},
		Audit: AuditConfig{
			Path: "./logs/messages.txt",
		},
		API: api.APIConfig{
			Enabled: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
