package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type session struct {
	ID string `json:"id" yaml:"id"`
	IP string `json:"ip" yaml:"ip"`
}

func TestPrint(t *testing.T) {
	table := NewTableData("ID", "IP")
	table.AddRow("s1", "10.0.0.1")

	tests := []struct {
		name   string
		format Format
		data   any
		want   string
	}{
		{"TableRenderer", FormatTable, table, "10.0.0.1"},
		{"TableFallsBackToJSON", FormatTable, session{ID: "s1", IP: "10.0.0.1"}, `"ip": "10.0.0.1"`},
		{"JSON", FormatJSON, session{ID: "s1", IP: "10.0.0.1"}, `"id": "s1"`},
		{"YAML", FormatYAML, session{ID: "s1", IP: "10.0.0.1"}, "ip: 10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Print(&buf, tt.format, tt.data))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrint_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Print(&buf, Format("xml"), nil))
}
