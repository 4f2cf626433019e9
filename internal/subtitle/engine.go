package subtitle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/tools"
)

const transcribeTimeout = 15 * time.Minute

// Engine transcribes narration audio into an SRT subtitle file.
type Engine interface {
	// Transcribe returns the path of the generated .srt next to the audio.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// WhisperEngine runs the whisper CLI and converts its JSON segments to SRT.
type WhisperEngine struct {
	binary string
	model  string
	runner tools.Runner
	logger *slog.Logger
}

func NewWhisperEngine(binary, model string, runner tools.Runner, logger *slog.Logger) *WhisperEngine {
	if binary == "" {
		binary = "whisper"
	}
	if model == "" {
		model = "base"
	}
	return &WhisperEngine{binary: binary, model: model, runner: runner, logger: logger}
}

// whisperOutput is the JSON document the whisper CLI writes with
// --output_format json.
type whisperOutput struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

func (e *WhisperEngine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	outDir := filepath.Dir(audioPath)
	e.logger.Info("transcribing narration", "audio", audioPath, "model", e.model)

	result := e.runner.Run(ctx, e.binary, []string{
		audioPath,
		"--model", e.model,
		"--output_format", "json",
		"--output_dir", outDir,
	}, tools.RunOptions{Timeout: transcribeTimeout})
	if !result.IsSuccess() {
		return "", fmt.Errorf("whisper exited %d: %s", result.ExitCode, result.StderrTail)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, base+".json")

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("cannot read transcription output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("cannot parse transcription JSON: %w", err)
	}

	srtPath := filepath.Join(outDir, base+".srt")
	if err := os.WriteFile(srtPath, []byte(BuildSRT(out.Segments)), 0644); err != nil {
		return "", fmt.Errorf("cannot write subtitles: %w", err)
	}

	e.logger.Info("subtitles generated", "srt", srtPath, "segments", len(out.Segments))
	return srtPath, nil
}

// Mock writes a single fixed cue, for development without whisper installed.
type Mock struct {
	logger *slog.Logger
}

func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger}
}

func (m *Mock) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.logger.Info("subtitle mock: transcription requested", "audio", audioPath)

	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	srtPath := base + ".srt"

	srt := BuildSRT([]Segment{{Start: 0, End: 3, Text: "Mock subtitles."}})
	if err := os.WriteFile(srtPath, []byte(srt), 0644); err != nil {
		return "", err
	}
	return srtPath, nil
}
