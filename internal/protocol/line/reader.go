package line

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"io"
	"strings"

	"github.com/marmos91/linefs/pkg/errors"
)

// DefaultMaxFrameSize bounds one inbound line when no limit is configured.
const DefaultMaxFrameSize = 16 * 1024 * 1024

// ErrFrameTooLarge is returned when a line exceeds the configured limit.
var ErrFrameTooLarge = errors.New(errors.ErrInvalidArgument, "Message too large")

// Reader splits an inbound byte stream into frames.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader creates a Reader accepting lines up to maxFrameSize bytes,
// delimiter included.
func NewReader(r io.Reader, maxFrameSize int) *Reader {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(4096, maxFrameSize)), maxFrameSize)
	sc.Split(splitFrames)
	return &Reader{sc: sc}
}

// ReadFrame returns the next line, trimmed of surrounding whitespace, and the
// number of bytes it occupied on the wire. A final unterminated line is
// returned before io.EOF.
func (r *Reader) ReadFrame() (string, int, error) {
	if !r.sc.Scan() {
		err := r.sc.Err()
		if err == nil {
			return "", 0, io.EOF
		}
		if stderrors.Is(err, bufio.ErrTooLong) {
			return "", 0, ErrFrameTooLarge
		}
		return "", 0, err
	}

	token := r.sc.Bytes()
	return strings.TrimSpace(string(token)), len(token), nil
}

func splitFrames(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, Delimiter); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
