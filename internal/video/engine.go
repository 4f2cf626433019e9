package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/storyforge/storyforge/internal/tools"
)

// fallbackNarrationSeconds is used when the duration probe fails; matches
// the target length of a generated script.
const fallbackNarrationSeconds = 60.0

// Request carries everything one render needs.
type Request struct {
	Topic          string
	Keywords       []string
	NarrationPath  string
	SubtitleFilter string // complete subtitles filter expression for burn-in
	OutputPath     string
}

// Engine produces the final composed video file.
type Engine interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Options configures the production engine's sources.
type Options struct {
	StockDir      string // local clip pool
	MusicDir      string
	MusicEnabled  bool
	MusicVolumeDB int
}

// FFmpegEngine is the production Engine: probe → plan → queries → supply →
// graph → render.
type FFmpegEngine struct {
	prober   tools.Prober
	supplier *Supplier
	invoker  *Invoker
	opts     Options
	logger   *slog.Logger
}

func NewFFmpegEngine(prober tools.Prober, supplier *Supplier, invoker *Invoker, opts Options, logger *slog.Logger) *FFmpegEngine {
	return &FFmpegEngine{
		prober:   prober,
		supplier: supplier,
		invoker:  invoker,
		opts:     opts,
		logger:   logger,
	}
}

func (e *FFmpegEngine) Generate(ctx context.Context, req Request) (string, error) {
	narration, err := e.prober.Duration(ctx, req.NarrationPath)
	if err != nil {
		e.logger.Warn("narration probe failed, using fallback duration",
			"narration", req.NarrationPath,
			"fallback_seconds", fallbackNarrationSeconds,
			"error", err,
		)
		narration = fallbackNarrationSeconds
	}

	plan, err := NewPlan(narration)
	if err != nil {
		return "", err
	}

	e.logger.Info("clip plan computed",
		"narration_seconds", narration,
		"clip_count", plan.ClipCount,
		"timeline_seconds", plan.TotalTimeline,
	)

	queries := BuildQueries(req.Topic, req.Keywords, plan.ClipCount)
	pool := ScanPool(e.opts.StockDir, e.logger)

	clips, err := e.supplier.Supply(ctx, plan, queries, pool)
	if err != nil {
		return "", fmt.Errorf("clip supply: %w", err)
	}

	musicPath := ""
	if e.opts.MusicEnabled {
		musicPath = PickMusic(e.opts.MusicDir, e.logger)
	}

	graph, err := BuildGraph(clips, req.SubtitleFilter, e.opts.MusicVolumeDB, musicPath != "")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return "", fmt.Errorf("cannot create output dir: %w", err)
	}

	return e.invoker.Render(ctx, clips, req.NarrationPath, musicPath, graph, req.OutputPath)
}

// Mock is a no-render Engine for development and tests: it writes a
// placeholder file at the requested path.
type Mock struct {
	logger *slog.Logger
}

func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger}
}

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	m.logger.Info("video mock: generate requested", "topic", req.Topic, "output", req.OutputPath)
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(req.OutputPath, []byte("mock video\n"), 0644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}
