package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/config"
)

func TestGenerateSchema(t *testing.T) {
	raw, err := generateSchema()
	require.NoError(t, err)

	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "linefs Configuration", schema.Title)
	for _, section := range []string{"logging", "server", "files", "admin", "monitoring", "audit", "api"} {
		assert.Contains(t, schema.Properties, section)
	}
}

func TestConfigWarnings(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Files.BasePath = t.TempDir()
	assert.Empty(t, configWarnings(cfg))

	cfg.Admin.AllowedIPs = []string{}
	cfg.Audit.Path = ""
	cfg.Metrics.Enabled = true
	cfg.API.Enabled = false

	warnings := configWarnings(cfg)
	assert.Len(t, warnings, 3)
}
