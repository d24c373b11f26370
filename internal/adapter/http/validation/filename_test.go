package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple filename",
			input:    "interview.mp3",
			expected: "interview.mp3",
		},
		{
			name:     "filename with spaces",
			input:    "my audio file.wav",
			expected: "my audio file.wav",
		},
		{
			name:     "unicode japanese",
			input:    "会議録音.mp3",
			expected: "会議録音.mp3",
		},
		{
			name:     "double quote",
			input:    `file"name.mp3`,
			expected: "file_name.mp3",
		},
		{
			name:     "backslash",
			input:    `file\name.mp3`,
			expected: "file_name.mp3",
		},
		{
			name:     "newline CRLF",
			input:    "file\r\nname.mp3",
			expected: "file__name.mp3",
		},
		{
			name:     "control character NUL",
			input:    "file\x00name.mp3",
			expected: "file_name.mp3",
		},
		{
			name:     "forward slash",
			input:    "file/name.mp3",
			expected: "file_name.mp3",
		},
		{
			name:     "colon",
			input:    "file:name.mp3",
			expected: "file_name.mp3",
		},
		{
			name:     "path traversal",
			input:    "../../../etc/passwd",
			expected: ".._.._.._etc_passwd",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "file",
		},
		{
			name:     "only whitespace",
			input:    "   ",
			expected: "file",
		},
		{
			name:     "only dangerous chars",
			input:    `"/\:`,
			expected: "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_LongFilenames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantExt string
	}{
		{
			name:    "filename at limit",
			input:   strings.Repeat("a", 255),
			wantLen: 255,
		},
		{
			name:    "over limit no extension",
			input:   strings.Repeat("a", 300),
			wantLen: 255,
		},
		{
			name:    "over limit preserves extension",
			input:   strings.Repeat("a", 300) + ".flac",
			wantLen: 255,
			wantExt: ".flac",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			assert.Len(t, result, tt.wantLen)
			if tt.wantExt != "" {
				assert.True(t, strings.HasSuffix(result, tt.wantExt))
			}
		})
	}
}

func TestSanitizeFilename_MultibyteTruncation(t *testing.T) {
	// Truncation must not cut a multi-byte character in half
	result := SanitizeFilename(strings.Repeat("音", 100) + ".mp3")
	assert.LessOrEqual(t, len(result), 255)
	assert.True(t, strings.HasSuffix(result, ".mp3"))
	for _, r := range result {
		assert.NotEqual(t, '�', r)
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		inline   bool
		expected string
	}{
		{
			name:     "attachment simple filename",
			filename: "interview.srt",
			inline:   false,
			expected: `attachment; filename="interview.srt"`,
		},
		{
			name:     "inline simple filename",
			filename: "interview.srt",
			inline:   true,
			expected: `inline; filename="interview.srt"`,
		},
		{
			name:     "sanitizes dangerous chars",
			filename: `bad"file\name.srt`,
			inline:   false,
			expected: `attachment; filename="bad_file_name.srt"`,
		},
		{
			name:     "empty filename returns file",
			filename: "",
			inline:   false,
			expected: `attachment; filename="file"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContentDisposition(tt.filename, tt.inline))
		})
	}
}

func TestContentDisposition_NoHeaderInjection(t *testing.T) {
	maliciousFilenames := []string{
		`injection"; evil=header`,
		"header\r\nX-Injected: value",
		`file""double.srt`,
	}

	for _, filename := range maliciousFilenames {
		t.Run(filename, func(t *testing.T) {
			result := ContentDisposition(filename, false)

			prefix := `attachment; filename="`
			assert.True(t, strings.HasPrefix(result, prefix))
			assert.True(t, strings.HasSuffix(result, `"`))

			value := result[len(prefix) : len(result)-1]
			assert.NotContains(t, value, `"`)
			assert.NotContains(t, value, "\n")
			assert.NotContains(t, value, "\r")
		})
	}
}
