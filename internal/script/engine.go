package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Engine produces a script for a topic.
type Engine interface {
	Generate(ctx context.Context, topic string) (Script, error)
}

// OllamaEngine talks to a local Ollama server through its OpenAI-compatible
// chat completions endpoint.
type OllamaEngine struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOllamaEngine(baseURL, model string, logger *slog.Logger) *OllamaEngine {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "mistral"
	}
	client := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1"),
		// Ollama ignores the key but the client requires one.
		option.WithAPIKey("ollama"),
	)
	return &OllamaEngine{client: client, model: model, logger: logger}
}

func (e *OllamaEngine) Generate(ctx context.Context, topic string) (Script, error) {
	e.logger.Info("generating script", "topic", topic, "model", e.model)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(topic)),
		},
		Model:       e.model,
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1200),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		return Script{}, fmt.Errorf("ollama generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Script{}, fmt.Errorf("ollama returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	e.logger.Debug("model output received", "bytes", len(raw))

	s := Normalize(raw, topic)
	e.logger.Info("script ready", "title", s.Title, "segments", len(s.Segments))
	return s, nil
}

func buildPrompt(topic string) string {
	return fmt.Sprintf(`Write a YouTube Shorts script about: %s

CHANNEL NICHE: History + Dark Facts + Shocking Truths
TARGET AUDIENCE: People who love discovering hidden historical events, dark secrets, and shocking revelations

SCRIPT STRUCTURE (STRICTLY FOLLOW THIS ORDER):

1. HOOK (0-3 seconds). Create immediate curiosity with a dramatic,
   suspenseful opener. No generic introductions. 10-15 words maximum.
   Proven patterns: hidden knowledge ("They don't teach this dark truth in
   school..."), shocking scale ("This decision killed millions and no one
   talks about it..."), a question ("Do you know the dark truth behind
   %s?"), or immediate shock ("The truth about %s will shock you...").

2. CONTEXT (3-15 seconds). Who, when, where. Just enough background for the
   story to make sense, in short punchy sentences, building anticipation.

3. DARK REVEAL (15-52 seconds). The core shocking content: secret, betrayal,
   death, cover-up. Include the twist that justifies the hook. Layer multiple
   shocking details if the topic warrants it. Keep the pacing dramatic.

4. ENDING (last 3-5 seconds). A soft, natural call to action, for example
   "More dark truths coming soon. Subscribe." Brief and authentic.

VIDEO DURATION: 30-60 seconds depending on topic complexity.

OUTPUT FORMAT:
Return strictly valid JSON with this structure:
{
  "title": "Video Title",
  "description": "Video Description",
  "visual_keywords": ["keyword1", "keyword2", "keyword3"],
  "script": [
    {"timestamp": "0-3s", "section": "hook", "text": "Hook text here"},
    {"timestamp": "3-15s", "section": "context", "text": "Context text here"},
    {"timestamp": "15-52s", "section": "dark_reveal", "text": "Main shocking content here"},
    {"timestamp": "52-60s", "section": "ending", "text": "CTA text here"}
  ],
  "tone": "dark",
  "target_duration_seconds": 60
}

CRITICAL RULES:
- Output valid JSON only.
- visual_keywords: 5 terms for stock footage search.
- Script text must be narratable (no labels like 'Hook:').
- VIDEO MUST BE AT LEAST 40 SECONDS LONG. This is a "Story Time" video.
- Expand the 'dark_reveal' section to ensure sufficient length.

Now write for: %s
`, topic, topic, topic, topic)
}

// Mock returns a fixed script, for development without Ollama running.
type Mock struct {
	logger *slog.Logger
}

func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger}
}

func (m *Mock) Generate(ctx context.Context, topic string) (Script, error) {
	m.logger.Info("script mock: generating", "topic", topic)
	return Script{
		Topic:          topic,
		Title:          topic + " Shorts",
		Description:    "Amazing facts about " + topic + " #shorts",
		VisualKeywords: fallbackKeywords(topic),
		Segments: []Segment{
			{Timestamp: "0-3s", Section: "hook", Text: "This is a hook."},
			{Timestamp: "3-50s", Section: "body", Text: "This is the main content."},
			{Timestamp: "50-60s", Section: "ending", Text: "Like and subscribe!"},
		},
		Tone: "informative",
	}, nil
}
