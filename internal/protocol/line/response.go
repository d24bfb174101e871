package line

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/marmos91/linefs/pkg/errors"
)

// ResponseTypeError tags error responses.
const ResponseTypeError = "ERROR"

// Delimiter terminates every frame in both directions.
const Delimiter = '\n'

// Response is one outbound frame.
type Response struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	IsAdmin   bool      `json:"isAdmin"`
}

// ErrorData is the payload of an ERROR response.
type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewResponse builds a success response.
func NewResponse(typ string, data any, privileged bool) Response {
	return Response{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now().UTC(),
		IsAdmin:   privileged,
	}
}

// NewErrorResponse builds an ERROR response from err. Only code-carrying
// errors expose their message; anything else is reported generically.
func NewErrorResponse(err error, privileged bool) Response {
	data := ErrorData{Message: "Internal error", Code: errors.ErrIOError.String()}

	var e *errors.Error
	if stderrors.As(err, &e) {
		data = ErrorData{Message: e.Message, Code: e.Code.String()}
	}
	return NewResponse(ResponseTypeError, data, privileged)
}

// Encode serializes r as one delimited frame.
func Encode(r Response) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, Delimiter), nil
}
