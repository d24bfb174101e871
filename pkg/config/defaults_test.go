package config

import (
	"testing"
	"time"

	"github.com/marmos91/linefs/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected default port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 100 {
		t.Errorf("Expected default max connections 100, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.MaxLineSize != 16*bytesize.MiB {
		t.Errorf("Expected default max line size 16Mi, got %d", cfg.Server.MaxLineSize)
	}
	if cfg.Server.RestrictedDelay != 0 {
		t.Errorf("Expected restricted delay disabled by default, got %v", cfg.Server.RestrictedDelay)
	}
	if cfg.Server.Timeouts.Privileged != 5*time.Minute {
		t.Errorf("Expected privileged timeout 5m, got %v", cfg.Server.Timeouts.Privileged)
	}
	if cfg.Server.Timeouts.Restricted != 60*time.Second {
		t.Errorf("Expected restricted timeout 60s, got %v", cfg.Server.Timeouts.Restricted)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.API.ReadTimeout)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
}

func TestApplyDefaults_Admin(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if len(cfg.Admin.AllowedIPs) != 2 || cfg.Admin.AllowedIPs[0] != "127.0.0.1" || cfg.Admin.AllowedIPs[1] != "::1" {
		t.Errorf("Expected loopback allow-list, got %v", cfg.Admin.AllowedIPs)
	}

	explicit := &Config{Admin: AdminConfig{AllowedIPs: []string{}}}
	ApplyDefaults(explicit)
	if len(explicit.Admin.AllowedIPs) != 0 {
		t.Errorf("Expected explicit empty allow-list to be preserved, got %v", explicit.Admin.AllowedIPs)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/linefs.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Server: ServerConfig{
			Port:            9100,
			RestrictedDelay: time.Second,
		},
		Files: FilesConfig{BasePath: "/srv/files"},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "/var/log/linefs.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 9100 || cfg.Server.RestrictedDelay != time.Second {
		t.Errorf("Expected explicit server values to be preserved, got %+v", cfg.Server)
	}
	if cfg.Files.BasePath != "/srv/files" {
		t.Errorf("Expected explicit base path to be preserved, got %q", cfg.Files.BasePath)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
	if !cfg.API.Enabled {
		t.Error("Expected API enabled in default config")
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled in default config")
	}
}
