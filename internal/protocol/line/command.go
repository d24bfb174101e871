// Package line implements the newline-delimited command protocol: request
// parsing, response framing and the frame reader.
package line

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/marmos91/linefs/pkg/errors"
)

// Encoding describes how upload content arrived on the wire.
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingInline
	EncodingBase64
)

func (e Encoding) String() string {
	switch e {
	case EncodingInline:
		return "inline"
	case EncodingBase64:
		return "base64"
	default:
		return "none"
	}
}

// Command is one parsed request line.
type Command struct {
	Verb Verb

	// Raw is the trimmed line as received.
	Raw string

	// Args holds the whitespace-separated arguments after the verb token.
	Args []string

	// Name is the target of file verbs, the keyword for search and the
	// directory for list. Empty when absent.
	Name string

	// Content and Encoding are set for VerbWrite.
	Content  []byte
	Encoding Encoding

	// Err is a parse failure (missing argument, malformed payload). The
	// permission gate still applies before it is reported.
	Err error
}

// uploadPayload is the structured upload object.
type uploadPayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Parse converts one trimmed line into a Command. It never fails: problems
// are carried in Command.Err.
func Parse(raw string) Command {
	if isStructured(raw) {
		if cmd, ok := parseStructured(raw); ok {
			return cmd
		}
	}

	if raw == TokenStats {
		return Command{Verb: VerbStats, Raw: raw}
	}

	if !strings.HasPrefix(raw, commandPrefix) {
		return Command{Verb: VerbMessage, Raw: raw}
	}

	fields := strings.Fields(raw)
	token, args := fields[0], fields[1:]
	verb, ok := commandTokens[token]
	if !ok {
		return Command{Verb: VerbUnknown, Raw: raw, Args: args, Err: errors.NewUnknownCommandError()}
	}

	cmd := Command{Verb: verb, Raw: raw, Args: args}
	if len(args) > 0 {
		cmd.Name = args[0]
	}

	switch verb {
	case VerbRead, VerbDownload, VerbDelete, VerbInfo:
		if cmd.Name == "" {
			cmd.Err = errors.NewInvalidArgumentError("Filename required")
		}
	case VerbSearch:
		if cmd.Name == "" {
			cmd.Err = errors.NewInvalidArgumentError("Keyword required")
		}
	case VerbWrite:
		return NewInlineUpload(raw)
	}
	return cmd
}

// NewInlineUpload builds a write Command from "/upload <name> <content...>".
// The content is the remainder of the line after the name and the single
// whitespace character that ends it.
func NewInlineUpload(raw string) Command {
	cmd := Command{Verb: VerbWrite, Raw: raw, Encoding: EncodingInline}

	rest := strings.TrimPrefix(raw, TokenUpload)
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	cmd.Args = strings.Fields(rest)

	i := strings.IndexFunc(rest, unicode.IsSpace)
	if i <= 0 {
		cmd.Err = errors.NewInvalidArgumentError("Usage: /upload <filename> <content>")
		return cmd
	}
	_, size := utf8.DecodeRuneInString(rest[i:])
	name, content := rest[:i], rest[i+size:]
	if content == "" {
		cmd.Err = errors.NewInvalidArgumentError("Usage: /upload <filename> <content>")
		return cmd
	}

	cmd.Name = name
	cmd.Content = []byte(content)
	return cmd
}

// NewStructuredUpload builds a write Command from a decoded upload object.
func NewStructuredUpload(raw, filename, content string) Command {
	cmd := Command{Verb: VerbWrite, Raw: raw, Encoding: EncodingBase64, Name: filename}
	if filename == "" || content == "" {
		cmd.Err = errors.NewMalformedPayloadError(nil)
		return cmd
	}

	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		cmd.Err = errors.NewMalformedPayloadError(err)
		return cmd
	}
	cmd.Content = decoded
	return cmd
}

func isStructured(raw string) bool {
	return strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}")
}

// parseStructured handles a JSON object line. A line that is not valid JSON,
// or that claims /upload with mistyped fields, is a malformed upload. A valid
// object carrying another command is not an upload and falls through to the
// text path.
func parseStructured(raw string) (Command, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return malformedUpload(raw, err), true
	}

	var command string
	if err := json.Unmarshal(fields["command"], &command); err != nil || command != TokenUpload {
		return Command{}, false
	}

	var p uploadPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return malformedUpload(raw, err), true
	}
	return NewStructuredUpload(raw, p.Filename, p.Content), true
}

func malformedUpload(raw string, err error) Command {
	return Command{
		Verb:     VerbWrite,
		Raw:      raw,
		Encoding: EncodingBase64,
		Err:      errors.NewMalformedPayloadError(err),
	}
}
