package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/linefs/internal/bytesize"
	"github.com/marmos91/linefs/pkg/api"
)

// Config represents the linefs configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LINEFS_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server configures the line protocol listener and sessions
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Files configures the sandboxed file store
	Files FilesConfig `mapstructure:"files" yaml:"files"`

	// Admin controls which peers get privileged sessions
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`

	// Monitoring controls traffic statistics persistence
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`

	// Audit configures the MESSAGE audit log
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the HTTP control API
	API api.APIConfig `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ServerConfig configures the line protocol server.
type ServerConfig struct {
	// Host is the address to bind to. Empty or "0.0.0.0" binds all interfaces.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the TCP port for the line protocol.
	// Default: 9000
	Port int `mapstructure:"port" validate:"min=1,max=65535" yaml:"port"`

	// MaxConnections is the admission ceiling. Connections beyond it receive
	// a capacity notice and are closed.
	// Default: 100
	MaxConnections int `mapstructure:"max_connections" validate:"min=1" yaml:"max_connections"`

	// MaxLineSize bounds one inbound frame.
	// Supports human-readable formats: "16Mi", "1MB"
	// Default: 16Mi
	MaxLineSize bytesize.ByteSize `mapstructure:"max_line_size" validate:"min=64" yaml:"max_line_size"`

	// RestrictedDelay is slept before processing each restricted command.
	// Default: 0s (disabled)
	RestrictedDelay time.Duration `mapstructure:"restricted_delay" validate:"min=0" yaml:"restricted_delay"`

	// Timeouts groups per-session timeouts
	Timeouts ServerTimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
}

// ServerTimeoutsConfig groups per-session timeouts.
type ServerTimeoutsConfig struct {
	// Privileged is the idle timeout of privileged sessions. Default: 5m
	Privileged time.Duration `mapstructure:"privileged" validate:"gt=0" yaml:"privileged"`

	// Restricted is the idle timeout of restricted sessions. Default: 60s
	Restricted time.Duration `mapstructure:"restricted" validate:"gt=0" yaml:"restricted"`

	// Write bounds a single response write. Default: 10s
	Write time.Duration `mapstructure:"write" validate:"gt=0" yaml:"write"`
}

// FilesConfig configures the sandboxed file store.
type FilesConfig struct {
	// BasePath is the directory all file commands are confined to.
	// Created on startup if missing. Default: ./files
	BasePath string `mapstructure:"base_path" validate:"required" yaml:"base_path"`
}

// AdminConfig controls which peers get privileged sessions.
type AdminConfig struct {
	// AllowedIPs lists IP addresses or CIDR prefixes granted privileged
	// sessions. An explicit empty list privileges nobody.
	// Default: [127.0.0.1, ::1]
	AllowedIPs []string `mapstructure:"allowed_ips" validate:"dive,ip|cidr" yaml:"allowed_ips"`
}

// MonitoringConfig controls traffic statistics persistence.
type MonitoringConfig struct {
	// Interval between snapshots appended to StatsLog.
	// Default: 5s
	Interval time.Duration `mapstructure:"interval" validate:"gt=0" yaml:"interval"`

	// SummaryInterval between traffic summary log lines.
	// Default: 30s
	SummaryInterval time.Duration `mapstructure:"summary_interval" validate:"gt=0" yaml:"summary_interval"`

	// StatsLog is the JSON-lines file snapshots are appended to.
	// Default: ./logs/server_stats.txt
	StatsLog string `mapstructure:"stats_log" validate:"required" yaml:"stats_log"`
}

// AuditConfig configures the MESSAGE audit log.
type AuditConfig struct {
	// Path of the append-only audit file. Empty disables auditing.
	// Default: ./logs/messages.txt
	Path string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig controls Prometheus metrics collection.
// When Enabled is false, no metrics are collected (zero overhead).
// Metrics are served on the API server at /metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// A missing config file is not an error: defaults and environment
// variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)
	setViperDefaults(v)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// Unlike Load, it requires the config file to exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  linefs init\n\n"+
				"Or specify a custom config file:\n"+
				"  linefs <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  linefs init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, data)
}

func writeConfigFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use LINEFS_ prefix and underscores
	// Example: LINEFS_SERVER_PORT=9100
	v.SetEnvPrefix("LINEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/linefs/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// setViperDefaults registers every key so AutomaticEnv can override keys
// absent from the config file.
func setViperDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("telemetry.profiling.enabled", d.Telemetry.Profiling.Enabled)
	v.SetDefault("telemetry.profiling.endpoint", d.Telemetry.Profiling.Endpoint)
	v.SetDefault("telemetry.profiling.profile_types", d.Telemetry.Profiling.ProfileTypes)

	v.SetDefault("shutdown_timeout", d.ShutdownTimeout.String())

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.max_line_size", uint64(d.Server.MaxLineSize))
	v.SetDefault("server.restricted_delay", d.Server.RestrictedDelay.String())
	v.SetDefault("server.timeouts.privileged", d.Server.Timeouts.Privileged.String())
	v.SetDefault("server.timeouts.restricted", d.Server.Timeouts.Restricted.String())
	v.SetDefault("server.timeouts.write", d.Server.Timeouts.Write.String())

	v.SetDefault("files.base_path", d.Files.BasePath)
	v.SetDefault("admin.allowed_ips", d.Admin.AllowedIPs)

	v.SetDefault("monitoring.interval", d.Monitoring.Interval.String())
	v.SetDefault("monitoring.summary_interval", d.Monitoring.SummaryInterval.String())
	v.SetDefault("monitoring.stats_log", d.Monitoring.StatsLog)

	v.SetDefault("audit.path", d.Audit.Path)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetDefault("api.enabled", d.API.Enabled)
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout.String())
	v.SetDefault("api.write_timeout", d.API.WriteTimeout.String())
	v.SetDefault("api.idle_timeout", d.API.IdleTimeout.String())
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize so
// config files can use sizes like "16Mi", "1MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s", "5m" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "linefs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "linefs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
