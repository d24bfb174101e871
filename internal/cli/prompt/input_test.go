package prompt

import (
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"127.0.0.1", []string{"127.0.0.1"}},
		{" 127.0.0.1 , ::1,,", []string{"127.0.0.1", "::1"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.in))
		})
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("9000"))
	assert.NoError(t, ValidatePort(" 1 "))
	assert.Error(t, ValidatePort("0"))
	assert.Error(t, ValidatePort("65536"))
	assert.Error(t, ValidatePort("nine"))
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(ErrAborted))
	assert.False(t, IsAborted(errors.New("other")))
	assert.NoError(t, wrapError(nil))
	assert.ErrorIs(t, wrapError(promptui.ErrAbort), ErrAborted)
}
