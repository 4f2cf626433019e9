// Package tts synthesizes narration audio from script text.
package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/storyforge/internal/tools"
)

const synthesizeTimeout = 5 * time.Minute

// Engine turns narration text into an audio file and returns its path.
type Engine interface {
	Synthesize(ctx context.Context, text string, outDir string) (string, error)
}

// PiperEngine drives the piper binary. Piper reads text from stdin and
// writes a wav to --output_file.
type PiperEngine struct {
	binary string
	model  string
	runner tools.Runner
	logger *slog.Logger
}

func NewPiperEngine(binary, model string, runner tools.Runner, logger *slog.Logger) *PiperEngine {
	return &PiperEngine{binary: binary, model: model, runner: runner, logger: logger}
}

func (e *PiperEngine) Synthesize(ctx context.Context, text string, outDir string) (string, error) {
	if _, err := os.Stat(e.binary); err != nil {
		return "", fmt.Errorf("piper binary not found at %s: %w", e.binary, err)
	}
	if _, err := os.Stat(e.model); err != nil {
		return "", fmt.Errorf("piper voice model not found at %s: %w", e.model, err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	outPath := filepath.Join(outDir, "audio_"+uuid.NewString()+".wav")
	e.logger.Info("synthesizing narration", "output", outPath, "chars", len(text))

	opts := tools.RunOptions{Stdin: text, Timeout: synthesizeTimeout}
	// Piper bundles espeak-ng data next to the binary on some platforms.
	espeakData := filepath.Join(filepath.Dir(e.binary), "espeak-ng-data")
	if _, err := os.Stat(espeakData); err == nil {
		opts.Env = []string{"ESPEAK_DATA_PATH=" + espeakData}
	}

	result := e.runner.Run(ctx, e.binary, []string{
		"--model", e.model,
		"--output_file", outPath,
	}, opts)
	if !result.IsSuccess() {
		return "", fmt.Errorf("piper exited %d: %s", result.ExitCode, result.StderrTail)
	}
	return outPath, nil
}

// Mock writes an empty wav container so downstream paths stay exercised.
type Mock struct {
	logger *slog.Logger
}

func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger}
}

func (m *Mock) Synthesize(ctx context.Context, text string, outDir string) (string, error) {
	m.logger.Info("tts mock: synthesis requested", "chars", len(text))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, "audio_"+uuid.NewString()+".wav")
	if err := os.WriteFile(outPath, []byte("RIFF"), 0644); err != nil {
		return "", err
	}
	return outPath, nil
}
