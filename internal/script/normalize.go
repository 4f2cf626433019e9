package script

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Normalize turns raw model output into a usable Script. Models ignore
// formatting instructions often enough that every stage here has been seen
// in practice: clean JSON, double-encoded JSON, markdown fences, JSON buried
// in prose, the retired hook/body/cta shape, and output with whole fields
// missing. When nothing parses at all a safe canned script is returned so
// the pipeline can still produce a video.
func Normalize(raw, topic string) Script {
	doc := extractObject(raw)

	var s Script
	if doc.Exists() {
		s = fromJSON(doc)
	}
	if len(s.Segments) == 0 {
		s = fallbackScript(topic)
	}
	s.Topic = topic

	if s.Title == "" {
		s.Title = topic + " Shorts"
	}
	if s.Description == "" {
		s.Description = "Watch this amazing video about " + topic + "! #shorts #viral"
	}
	if len(s.VisualKeywords) == 0 {
		s.VisualKeywords = fallbackKeywords(topic)
	}
	if !s.HasCallToAction() {
		s.Segments = append(s.Segments, Segment{
			Timestamp: "55-60s",
			Text:      "If you enjoyed this, please like and subscribe for more amazing facts!",
		})
	}
	return s
}

// extractObject finds the JSON object in raw, trying progressively looser
// strategies.
func extractObject(raw string) gjson.Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return gjson.Result{}
	}

	if gjson.Valid(raw) {
		doc := gjson.Parse(raw)
		if doc.IsObject() {
			return doc
		}
		// Double-encoded: the whole document is a JSON string holding JSON.
		if doc.Type == gjson.String {
			inner := doc.String()
			if gjson.Valid(inner) {
				if d := gjson.Parse(inner); d.IsObject() {
					return d
				}
			}
		}
	}

	if m := codeFence.FindStringSubmatch(raw); m != nil {
		if gjson.Valid(m[1]) {
			if d := gjson.Parse(m[1]); d.IsObject() {
				return d
			}
		}
	}

	// Last resort: the outermost brace span.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		span := raw[start : end+1]
		if gjson.Valid(span) {
			if d := gjson.Parse(span); d.IsObject() {
				return d
			}
		}
	}
	return gjson.Result{}
}

func fromJSON(doc gjson.Result) Script {
	var s Script
	s.Title = doc.Get("title").String()
	s.Description = doc.Get("description").String()
	s.Tone = doc.Get("tone").String()
	s.TargetDurationSeconds = int(doc.Get("target_duration_seconds").Int())

	for _, kw := range doc.Get("visual_keywords").Array() {
		if v := strings.TrimSpace(kw.String()); v != "" {
			s.VisualKeywords = append(s.VisualKeywords, v)
		}
	}

	if arr := doc.Get("script"); arr.IsArray() {
		for _, seg := range arr.Array() {
			text := strings.TrimSpace(seg.Get("text").String())
			if text == "" {
				continue
			}
			s.Segments = append(s.Segments, Segment{
				Timestamp: seg.Get("timestamp").String(),
				Section:   seg.Get("section").String(),
				Text:      text,
			})
		}
	}

	// Rescue the retired flat shape when the model ignored the schema.
	if len(s.Segments) == 0 && doc.Get("hook").Exists() && doc.Get("body").Exists() {
		s.Segments = []Segment{
			{Timestamp: "0-5s", Text: doc.Get("hook").String()},
			{Timestamp: "5-50s", Text: doc.Get("body").String()},
			{Timestamp: "50-60s", Text: doc.Get("cta").String()},
		}
	}
	return s
}

func fallbackScript(topic string) Script {
	return Script{
		Title:       topic + " - Must See!",
		Description: "Amazing facts about " + topic + " #shorts",
		Tone:        "informative",
		Segments: []Segment{
			{Timestamp: "0-5s", Text: "Here is a shocking fact about " + topic + "."},
			{Timestamp: "5-50s", Text: "This historical event has secrets that few people know about. It changed everything."},
			{Timestamp: "50-60s", Text: "Subscribe to find out more!"},
		},
	}
}

func fallbackKeywords(topic string) []string {
	cleaned := strings.ToLower(topic)
	cleaned = strings.ReplaceAll(cleaned, "history of", "")
	cleaned = strings.ReplaceAll(cleaned, "facts", "")
	cleaned = strings.TrimSpace(cleaned)
	return []string{cleaned, "technology", "abstract", "background", "nature"}
}
