// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Lyrics operations
	OpLyricsLoad  Op = "load lyrics"
	OpLyricsParse Op = "parse lyrics"
	OpLyricsFetch Op = "fetch lyrics"
	OpLyricsPlay  Op = "play lyrics"

	// Update operations
	OpUpdateCheck  Op = "check for updates"
	OpUpdateWatch  Op = "watch for updates"
	OpUpdateStatus Op = "read update status"

	// Widget operations
	OpWidgetLoad Op = "load widget data"
	OpWidgetSave Op = "save widget data"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpStateOpen  Op = "open state database"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Error wraps err so that its message reads like Format while keeping
// the chain intact for errors.Is.
func Error(op Op, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
