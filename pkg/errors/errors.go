// Package errors provides the error codes and error type shared by the file
// store, the line protocol and the connection layer.
//
// This is a leaf package with no internal dependencies so that every layer can
// import it without cycles.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrPermissionDenied indicates a restricted session attempted a
	// privileged command.
	ErrPermissionDenied ErrorCode = iota + 1

	// ErrInvalidArgument indicates a required argument was missing or unusable.
	ErrInvalidArgument

	// ErrInvalidName indicates a name containing a traversal or separator
	// sequence. Always raised before the filesystem is touched.
	ErrInvalidName

	// ErrNotFound indicates the requested file or directory does not exist.
	ErrNotFound

	// ErrIsDirectory indicates a file operation was attempted on a directory.
	ErrIsDirectory

	// ErrNotDirectory indicates a directory operation was attempted on a file.
	ErrNotDirectory

	// ErrMalformedPayload indicates a structured payload could not be decoded.
	ErrMalformedPayload

	// ErrUnknownCommand indicates the verb is not recognized.
	ErrUnknownCommand

	// ErrTransport indicates a read or write failure on the connection.
	ErrTransport

	// ErrTimeout indicates the session idle deadline expired.
	ErrTimeout

	// ErrIOError indicates an unexpected filesystem failure.
	ErrIOError

	// ErrConnectionLimitReached indicates the admission ceiling was reached.
	ErrConnectionLimitReached
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrInvalidName:
		return "InvalidName"
	case ErrNotFound:
		return "NotFound"
	case ErrIsDirectory:
		return "IsDirectory"
	case ErrNotDirectory:
		return "NotDirectory"
	case ErrMalformedPayload:
		return "MalformedPayload"
	case ErrUnknownCommand:
		return "UnknownCommand"
	case ErrTransport:
		return "Transport"
	case ErrTimeout:
		return "Timeout"
	case ErrIOError:
		return "IOError"
	case ErrConnectionLimitReached:
		return "ConnectionLimitReached"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// Error is the error type returned across package boundaries.
//
// Message is the text sent to the peer in an ERROR response and must not
// leak absolute server paths.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New returns an *Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an *Error carrying err as its cause.
func Wrap(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the ErrorCode from err. Foreign errors map to ErrIOError.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrIOError
}

// MessageOf returns the peer-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}

// ============================================================================
// Error Factory Functions
// ============================================================================

// NewPermissionDeniedError returns the error sent to restricted sessions.
func NewPermissionDeniedError() *Error {
	return &Error{Code: ErrPermissionDenied, Message: "Insufficient permissions"}
}

// NewInvalidNameError returns an invalid name error for name.
func NewInvalidNameError(name string) *Error {
	return &Error{Code: ErrInvalidName, Message: "Invalid file name", Path: name}
}

// NewNotFoundError returns a not found error. kind is "file" or "directory".
func NewNotFoundError(name, kind string) *Error {
	msg := "File does not exist"
	if kind == "directory" {
		msg = "Directory does not exist"
	}
	return &Error{Code: ErrNotFound, Message: msg, Path: name}
}

// NewIsDirectoryError returns an error for file operations on directories.
func NewIsDirectoryError(name, op string) *Error {
	return &Error{Code: ErrIsDirectory, Message: fmt.Sprintf("Cannot %s directory", op), Path: name}
}

// NewNotDirectoryError returns an error for listing a regular file.
func NewNotDirectoryError(name string) *Error {
	return &Error{Code: ErrNotDirectory, Message: "Not a directory", Path: name}
}

// NewInvalidArgumentError returns an error for a missing or bad argument.
func NewInvalidArgumentError(message string) *Error {
	return &Error{Code: ErrInvalidArgument, Message: message}
}

// NewMalformedPayloadError returns an error for an undecodable upload payload.
func NewMalformedPayloadError(cause error) *Error {
	return &Error{Code: ErrMalformedPayload, Message: "Invalid upload payload", Err: cause}
}

// NewUnknownCommandError returns the error for unrecognized verbs.
func NewUnknownCommandError() *Error {
	return &Error{Code: ErrUnknownCommand, Message: "Unknown command"}
}

// NewIOError wraps an unexpected filesystem failure.
func NewIOError(name, op string, cause error) *Error {
	return &Error{Code: ErrIOError, Message: fmt.Sprintf("Failed to %s", op), Path: name, Err: cause}
}

// NewTimeoutError returns the error sent when a session idles out.
func NewTimeoutError() *Error {
	return &Error{Code: ErrTimeout, Message: "Connection timeout"}
}

// NewConnectionLimitError returns the notice sent to connections refused at
// the admission ceiling.
func NewConnectionLimitError() *Error {
	return &Error{Code: ErrConnectionLimitReached, Message: "Server is at maximum capacity. Please try again later."}
}
