package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storyforge/storyforge/internal/output"
	"github.com/storyforge/storyforge/internal/runs"
	"github.com/storyforge/storyforge/internal/subtitle"
	"github.com/storyforge/storyforge/internal/upload"
	"github.com/storyforge/storyforge/internal/video"
)

// Service runs the generation pipeline end to end and records progress in
// the run store.
type Service struct {
	engines       Engines
	store         runs.Store
	layout        output.Layout
	uploadEnabled bool
	privacy       string
	logger        *slog.Logger
}

func NewService(engines Engines, store runs.Store, layout output.Layout, uploadEnabled bool, privacy string, logger *slog.Logger) *Service {
	return &Service{
		engines:       engines,
		store:         store,
		layout:        layout,
		uploadEnabled: uploadEnabled,
		privacy:       privacy,
		logger:        logger,
	}
}

// Run generates one video for topic. The returned run reflects the final
// state; it is also persisted, including on failure.
func (s *Service) Run(ctx context.Context, topic string) (*runs.Run, error) {
	run := runs.NewRun(topic)
	if err := s.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("cannot record run: %w", err)
	}
	return run, s.Execute(ctx, run)
}

// Execute drives an already-recorded run through the pipeline. The run must
// exist in the store; its status and step are updated as stages complete.
func (s *Service) Execute(ctx context.Context, run *runs.Run) error {
	topic := run.Topic
	logger := s.logger.With("run_id", run.ID, "topic", topic)
	run.Status = runs.StatusRunning

	fail := func(step string, err error) error {
		logger.Error("pipeline step failed", "step", step, "error", err)
		run.Status = runs.StatusFailed
		run.Step = step
		run.Error = err.Error()
		if uerr := s.store.Update(ctx, run); uerr != nil {
			logger.Error("cannot persist failed run", "error", uerr)
		}
		return fmt.Errorf("%s: %w", step, err)
	}

	advance := func(step string) {
		run.Step = step
		if err := s.store.Update(ctx, run); err != nil {
			logger.Error("cannot persist run progress", "step", step, "error", err)
		}
		logger.Info("pipeline step", "step", step)
	}

	runDir, err := s.layout.RunDir(topic, run.ID)
	if err != nil {
		return fail("prepare", err)
	}

	advance("script")
	scr, err := s.engines.Script.Generate(ctx, topic)
	if err != nil {
		return fail("script", err)
	}
	run.Title = scr.Title
	narrationText := scr.NarrationText()
	logger.Info("script generated", "title", scr.Title, "chars", len(narrationText))

	advance("narration")
	audioPath, err := s.engines.TTS.Synthesize(ctx, narrationText, runDir)
	if err != nil {
		return fail("narration", err)
	}

	advance("subtitles")
	srtPath, err := s.engines.Subtitle.Transcribe(ctx, audioPath)
	if err != nil {
		return fail("subtitles", err)
	}

	advance("video")
	videoPath, err := s.engines.Video.Generate(ctx, video.Request{
		Topic:          topic,
		Keywords:       scr.VisualKeywords,
		NarrationPath:  audioPath,
		SubtitleFilter: subtitle.BurnInFilter(srtPath),
		OutputPath:     s.layout.VideoPath(runDir),
	})
	if err != nil {
		return fail("video", err)
	}
	run.VideoPath = videoPath

	if s.uploadEnabled {
		advance("upload")
		url, err := s.engines.Upload.Upload(ctx, videoPath, upload.Metadata{
			Title:         scr.Title,
			Description:   scr.Description,
			Tags:          buildTags(topic),
			PrivacyStatus: s.privacy,
		})
		if err != nil {
			return fail("upload", err)
		}
		run.UploadURL = url
	}

	run.Status = runs.StatusCompleted
	run.Step = "done"
	if err := s.store.Update(ctx, run); err != nil {
		logger.Error("cannot persist completed run", "error", err)
	}
	logger.Info("pipeline completed", "video", videoPath, "url", run.UploadURL)
	return nil
}

func buildTags(topic string) []string {
	return []string{
		"shorts",
		"viral",
		strings.ToLower(strings.ReplaceAll(topic, " ", "")),
	}
}
