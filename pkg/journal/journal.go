// Package journal provides append-only line sinks used for the message audit
// log and the traffic statistics log.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Journal appends complete lines to a file.
//
// Each line is emitted with a single Write under a mutex on an O_APPEND file,
// so concurrent appenders never interleave partial lines.
type Journal struct {
	mu     sync.Mutex
	path   string
	w      io.WriteCloser
	closed bool
	now    func() time.Time
}

// Open opens (or creates) the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory for %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %q: %w", path, err)
	}
	return &Journal{path: path, w: f, now: time.Now}, nil
}

// Path returns the file path.
func (j *Journal) Path() string {
	return j.path
}

// AppendLine writes line followed by a newline. Embedded newlines are
// replaced with spaces so one call always produces one line.
func (j *Journal) AppendLine(line string) error {
	line = strings.ReplaceAll(strings.TrimRight(line, "\r\n"), "\n", " ")
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return os.ErrClosed
	}
	if _, err := j.w.Write(buf); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	return nil
}

// AppendMessage writes an audit entry of the form "[<timestamp>] <id>: <text>".
func (j *Journal) AppendMessage(id, text string) error {
	ts := j.now().UTC().Format(time.RFC3339Nano)
	return j.AppendLine(fmt.Sprintf("[%s] %s: %s", ts, id, text))
}

// AppendJSON writes v as one JSON line.
func (j *Journal) AppendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("journal encode: %w", err)
	}
	return j.AppendLine(string(data))
}

// Close closes the underlying writer. Further appends return os.ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.w.Close()
}
