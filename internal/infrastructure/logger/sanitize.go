package logger

import (
	"fmt"
	"strings"
)

// SanitizeForLog escapes control characters in user-supplied strings before
// they reach the log, preventing forged log entries and terminal escape
// injection. Unicode text (CJK, accents, emoji) passes through unchanged.
func SanitizeForLog(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n':
			result.WriteString("\\n")
		case r == '\r':
			result.WriteString("\\r")
		case r == '\t':
			result.WriteString("\\t")
		case r < 32 || r == 127:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
