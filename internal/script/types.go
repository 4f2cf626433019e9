// Package script generates narration scripts for short-form videos from a
// topic, using a local Ollama model through its OpenAI-compatible endpoint.
package script

import (
	"regexp"
	"strings"
)

// Segment is one timed portion of the script.
type Segment struct {
	Timestamp string `json:"timestamp"`
	Section   string `json:"section,omitempty"`
	Text      string `json:"text"`
}

// Script is the structured output of a generation run.
type Script struct {
	Topic                 string    `json:"topic"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	VisualKeywords        []string  `json:"visual_keywords"`
	Segments              []Segment `json:"script"`
	Tone                  string    `json:"tone,omitempty"`
	TargetDurationSeconds int       `json:"target_duration_seconds,omitempty"`
}

// sectionLabel matches structural labels that models sometimes leak into the
// narratable text, like "Hook: ..." or "CTA: ...".
var sectionLabel = regexp.MustCompile(`(?i)^(Hook|Context|Body|Twist|Reveal|Ending|CTA|Text):\s*`)

// NarrationText joins segment texts into the voiceover string, stripping any
// leaked section labels.
func (s Script) NarrationText() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		text := sectionLabel.ReplaceAllString(strings.TrimSpace(seg.Text), "")
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// HasCallToAction reports whether the final segment asks the viewer to
// engage with the channel.
func (s Script) HasCallToAction() bool {
	if len(s.Segments) == 0 {
		return false
	}
	last := strings.ToLower(s.Segments[len(s.Segments)-1].Text)
	for _, word := range []string{"subscribe", "like", "share", "follow"} {
		if strings.Contains(last, word) {
			return true
		}
	}
	return false
}
