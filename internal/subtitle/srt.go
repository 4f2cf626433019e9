// Package subtitle provides narration transcription and SRT assembly, plus
// the burn-in filter expression the renderer consumes.
package subtitle

import (
	"fmt"
	"math"
	"strings"
)

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// FormatTimestamp converts seconds to the SRT time format HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	seconds = math.Mod(seconds, 3600)
	minutes := int(seconds / 60)
	seconds = math.Mod(seconds, 60)
	millis := int(math.Round((seconds - math.Floor(seconds)) * 1000))
	secs := int(seconds)
	if millis == 1000 {
		millis = 0
		secs++
	}
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// BuildSRT assembles an SRT document from segments. Cues are numbered from
// one; empty segments are skipped.
func BuildSRT(segments []Segment) string {
	var b strings.Builder
	cue := 1
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			cue, FormatTimestamp(s.Start), FormatTimestamp(s.End), text)
		cue++
	}
	return b.String()
}
