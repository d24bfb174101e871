package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/config"
)

func TestExtractTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		line string
		want time.Time
	}{
		{"Audit", "[2024-01-15T10:30:45Z] 127.0.0.1:5000: hello", want},
		{"JSONLog", `{"time":"2024-01-15T10:30:45Z","level":"INFO","msg":"x"}`, want},
		{"TrafficSnapshot", `{"timestamp":"2024-01-15T10:30:45Z","activeConnections":0}`, want},
		{"TextLog", "[2024-01-15 10:30:45] [INFO] Client connected", time.Date(2024, 1, 15, 10, 30, 45, 0, time.Local)},
		{"NoTimestamp", "plain line", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(extractTimestamp(tt.line)), "got %v", extractTimestamp(tt.line))
		})
	}
}

func TestTailLines(t *testing.T) {
	input := strings.Join([]string{"one", "two", "three", "four"}, "\n")

	got, err := tailLines(strings.NewReader(input), 2, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, got)

	got, err = tailLines(strings.NewReader(input), 10, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)

	got, err = tailLines(strings.NewReader(input), 0, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTailLines_Since(t *testing.T) {
	input := strings.Join([]string{
		"[2024-01-15T09:00:00Z] a: old",
		"[2024-01-15T11:00:00Z] a: new",
		"continuation without stamp",
	}, "\n")

	since := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	got, err := tailLines(strings.NewReader(input), 10, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"[2024-01-15T11:00:00Z] a: new", "continuation without stamp"}, got)
}

func TestLogPath(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Output = "/var/log/linefs.log"

	tests := []struct {
		source  string
		want    string
		wantErr bool
	}{
		{"server", "/var/log/linefs.log", false},
		{"audit", cfg.Audit.Path, false},
		{"stats", cfg.Monitoring.StatsLog, false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := logPath(cfg, tt.source)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogPath_NotAFile(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Output = "stdout"
	_, err := logPath(cfg, "server")
	assert.Error(t, err)

	cfg.Audit.Path = ""
	_, err = logPath(cfg, "audit")
	assert.Error(t, err)
}
