package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrPermissionDenied, "PermissionDenied"},
		{ErrInvalidName, "InvalidName"},
		{ErrMalformedPayload, "MalformedPayload"},
		{ErrConnectionLimitReached, "ConnectionLimitReached"},
		{ErrorCode(999), "Unknown(999)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.String())
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("a.txt", "file")
	assert.Equal(t, "NotFound: File does not exist (path: a.txt)", err.Error())
	assert.Equal(t, "Unknown command", NewUnknownCommandError().Message)
	assert.Equal(t, "Directory does not exist", NewNotFoundError("x", "directory").Message)
	assert.Equal(t, ErrTimeout, NewTimeoutError().Code)
	assert.Equal(t, "Server is at maximum capacity. Please try again later.", NewConnectionLimitError().Message)
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", NewInvalidNameError("../x"))
	assert.Equal(t, ErrInvalidName, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrInvalidName))
	assert.Equal(t, ErrIOError, CodeOf(os.ErrClosed))
	assert.Equal(t, "Invalid file name", MessageOf(wrapped))
}

func TestUnwrapAndIs(t *testing.T) {
	t.Parallel()

	err := NewIOError("f", "read file", os.ErrPermission)
	assert.True(t, stderrors.Is(err, os.ErrPermission))
	assert.True(t, stderrors.Is(err, &Error{Code: ErrIOError}))
	assert.False(t, stderrors.Is(err, &Error{Code: ErrNotFound}))
}
