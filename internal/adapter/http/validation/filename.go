package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxFilenameLength is the maximum allowed filename length (common filesystem limit).
const maxFilenameLength = 255

// SanitizeFilename sanitizes a filename for safe use in Content-Disposition
// headers and file paths. Control characters, quotes, path separators, and
// CR/LF are replaced with underscores; Unicode text (CJK, accents) is kept
// as is. Overlong names are truncated to 255 bytes preserving the extension.
// Empty or fully replaced input becomes "file".
func SanitizeFilename(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	replaced := 0
	for _, r := range name {
		if unsafeRune(r) {
			sb.WriteRune('_')
			replaced++
		} else {
			sb.WriteRune(r)
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" || result == strings.Repeat("_", len(result)) {
		return "file"
	}

	if len(result) > maxFilenameLength {
		result = truncatePreservingExtension(result)
	}

	return result
}

// unsafeRune reports whether the rune can break a Content-Disposition header
// or escape into a path.
func unsafeRune(r rune) bool {
	if r < 32 || r == 127 {
		return true
	}
	switch r {
	case '"', '\\', '/', ':', '\n', '\r':
		return true
	}
	return false
}

// truncatePreservingExtension cuts the base name down so that name plus
// extension fits in maxFilenameLength bytes.
func truncatePreservingExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) >= maxFilenameLength {
		return truncateToBytes(name, maxFilenameLength)
	}

	base := name[:len(name)-len(ext)]
	return truncateToBytes(base, maxFilenameLength-len(ext)) + ext
}

// truncateToBytes truncates a UTF-8 string to at most maxBytes bytes without
// cutting a multi-byte character in half.
func truncateToBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:maxBytes])
		if r != utf8.RuneError {
			break
		}
		maxBytes--
	}
	return s[:maxBytes]
}

// ContentDisposition returns a safe Content-Disposition header value for the
// given filename, either inline or as an attachment.
func ContentDisposition(filename string, inline bool) string {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	return fmt.Sprintf("%s; filename=%q", disposition, SanitizeFilename(filename))
}
