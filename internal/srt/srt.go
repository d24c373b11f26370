// Package srt renders subtitles in SubRip format.
package srt

import (
	"fmt"
	"strings"

	"github.com/torisu/jimaku/internal/domain"
)

// Format renders target-language subtitles: 1-based index, timestamp pair,
// text line, blank separator line between entries.
func Format(subtitles []domain.Subtitle) string {
	return format(subtitles, false)
}

// FormatBilingual renders the source text line above the target text line.
func FormatBilingual(subtitles []domain.Subtitle) string {
	return format(subtitles, true)
}

func format(subtitles []domain.Subtitle, bilingual bool) string {
	var sb strings.Builder
	for i, sub := range subtitles {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", Timestamp(sub.StartMS), Timestamp(sub.EndMS))
		if bilingual {
			sb.WriteString(sub.SourceText)
			sb.WriteString("\n")
		}
		sb.WriteString(sub.TargetText)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Timestamp formats milliseconds as HH:MM:SS,mmm.
func Timestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
