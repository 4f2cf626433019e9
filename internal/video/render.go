package video

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storyforge/storyforge/internal/tools"
)

const renderTimeout = 10 * time.Minute

// Invoker builds the external renderer's argument list and runs it.
type Invoker struct {
	runner tools.Runner
	logger *slog.Logger
}

func NewInvoker(runner tools.Runner, logger *slog.Logger) *Invoker {
	return &Invoker{runner: runner, logger: logger}
}

// Render invokes ffmpeg synchronously: looped per-clip inputs capped at the
// clip duration, the narration input, an optional looped music input, the
// filter graph, explicit stream maps, and the output codec settings. A
// nonzero exit surfaces as RenderError with the captured stderr tail.
func (inv *Invoker) Render(ctx context.Context, clips []ClipAsset, narrationPath, musicPath string, graph Graph, outputPath string) (string, error) {
	if len(clips) == 0 {
		return "", fmt.Errorf("%w: empty clip set", ErrInvalidInput)
	}

	args := buildRenderArgs(clips, narrationPath, musicPath, graph, outputPath)

	inv.logger.Info("rendering video",
		"clips", len(clips),
		"music", musicPath != "",
		"output", outputPath,
	)

	result := inv.runner.Run(ctx, "ffmpeg", args, tools.RunOptions{Timeout: renderTimeout})
	if !result.IsSuccess() {
		return "", &RenderError{ExitCode: result.ExitCode, StderrTail: result.StderrTail}
	}

	inv.logger.Info("render complete", "output", outputPath, "duration", result.Duration)
	return outputPath, nil
}

func buildRenderArgs(clips []ClipAsset, narrationPath, musicPath string, graph Graph, outputPath string) []string {
	args := []string{"-y"}

	// Each clip loops and is read for at most the clip duration; the
	// crossfade chain consumes exactly that much of each.
	clipSeconds := formatSeconds(ClipDuration)
	for _, c := range clips {
		args = append(args, "-stream_loop", "-1", "-t", clipSeconds, "-i", c.LocalPath)
	}

	args = append(args, "-i", narrationPath)

	if musicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", musicPath)
	}

	args = append(args,
		"-filter_complex", graph.FilterComplex,
		"-map", graph.VideoLabel,
		"-map", graph.AudioLabel,
		"-shortest",
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "192k",
		outputPath,
	)

	return args
}
