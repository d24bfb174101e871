package line

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSplitsFrames(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("  /list \r\n\nSTATS\nlast"), 0)

	line, n, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "/list", line)
	assert.Equal(t, len("  /list \r\n"), n)

	line, n, err = r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "", line)
	assert.Equal(t, 1, n)

	line, n, err = r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "STATS", line)
	assert.Equal(t, 6, n)

	line, n, err = r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "last", line)
	assert.Equal(t, 4, n)

	_, _, err = r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderRejectsOversizedFrame(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader(strings.Repeat("x", 64)+"\n"), 16)
	_, _, err := r.ReadFrame()
	assert.True(t, errors.Is(err, ErrFrameTooLarge))
}

func TestEncodeResponse(t *testing.T) {
	t.Parallel()

	frame, err := Encode(NewResponse("LIST_RESPONSE", []string{"a"}, true))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(frame), "\n"))
	assert.Equal(t, 1, strings.Count(string(frame), "\n"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "LIST_RESPONSE", decoded["type"])
	assert.Equal(t, true, decoded["isAdmin"])

	ts, err := time.Parse(time.RFC3339Nano, decoded["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestErrorResponse(t *testing.T) {
	t.Parallel()

	resp := NewErrorResponse(Parse("/read").Err, false)
	assert.Equal(t, ResponseTypeError, resp.Type)
	assert.Equal(t, ErrorData{Message: "Filename required", Code: "InvalidArgument"}, resp.Data)

	resp = NewErrorResponse(io.ErrUnexpectedEOF, false)
	assert.Equal(t, "Internal error", resp.Data.(ErrorData).Message)
}
