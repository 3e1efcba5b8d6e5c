// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by pipeline stage.
const (
	// Setup
	OpConfigLoad  Op = "load configuration"
	OpJournalOpen Op = "open mutation journal"

	// Tree restructuring
	OpSanitize Op = "sanitize names"
	OpFlatten  Op = "flatten albums"
	OpPrune    Op = "remove directories without songs"

	// Dataset
	OpInventory Op = "build inventory"
	OpSample    Op = "sample songs"
	OpExtract   Op = "extract segments"
	OpWrite     Op = "write dataset"
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
