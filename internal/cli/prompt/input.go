package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Input prompts for text input.
func Input(label string, defaultValue string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// InputWithValidation prompts for text input with custom validation.
func InputWithValidation(label, defaultValue string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// InputPort prompts for a network port with validation (1-65535).
func InputPort(label string, defaultValue int) (int, error) {
	result, err := InputWithValidation(label, strconv.Itoa(defaultValue), ValidatePort)
	if err != nil {
		return 0, err
	}

	value, _ := strconv.Atoi(result) // Already validated
	return value, nil
}

// InputList prompts for a comma-separated list. Each element is checked
// with validateItem. An empty answer yields an empty, non-nil slice.
func InputList(label string, defaultValue []string, validateItem func(string) error) ([]string, error) {
	result, err := InputWithValidation(label, strings.Join(defaultValue, ","), func(input string) error {
		for _, item := range SplitList(input) {
			if err := validateItem(item); err != nil {
				return fmt.Errorf("%q: %w", item, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return SplitList(result), nil
}

// ValidatePort accepts decimal integers in 1-65535.
func ValidatePort(input string) error {
	port, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fmt.Errorf("must be a valid integer")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be a valid port (1-65535)")
	}
	return nil
}

// SplitList splits a comma-separated answer, dropping blanks.
func SplitList(input string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
