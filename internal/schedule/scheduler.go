// Package schedule runs the generation pipeline on a daily trigger.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/storyforge/storyforge/internal/batch"
	"github.com/storyforge/storyforge/internal/config"
)

var topicCategories = []string{"Technology", "History", "Science", "Nature", "Space"}

// Scheduler fires once per day at the configured HH:MM local time, running
// either the full topics batch or a single video.
type Scheduler struct {
	cfg       config.SchedulerConfig
	processor *batch.Processor
	generator batch.Generator
	logger    *slog.Logger

	tick    time.Duration
	running atomic.Bool
	paused  atomic.Bool
	lastDay atomic.Value // string, "2006-01-02" of the last trigger
}

func NewScheduler(cfg config.SchedulerConfig, processor *batch.Processor, generator batch.Generator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		processor: processor,
		generator: generator,
		logger:    logger,
		tick:      time.Minute,
	}
}

// Start blocks until ctx is cancelled, checking once a minute whether the
// configured run time has been reached today.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.running.Swap(true) {
		return nil
	}
	defer s.running.Store(false)

	target, err := parseRunTime(s.cfg.RunTime)
	if err != nil {
		return err
	}

	s.logger.Info("scheduler started",
		"run_time", s.cfg.RunTime,
		"mode", s.cfg.Mode,
		"auto_topics", s.cfg.AutoGenerateTopics,
	)

	s.seedLastDay(time.Now(), target)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()
		case now := <-ticker.C:
			if s.paused.Load() {
				continue
			}
			if s.due(now, target) {
				s.lastDay.Store(now.Format("2006-01-02"))
				s.fire(ctx)
			}
		}
	}
}

func (s *Scheduler) Pause() {
	s.paused.Store(true)
	s.logger.Info("scheduler paused")
}

func (s *Scheduler) Resume() {
	s.paused.Store(false)
	s.logger.Info("scheduler resumed")
}

func (s *Scheduler) IsPaused() bool  { return s.paused.Load() }
func (s *Scheduler) IsRunning() bool { return s.running.Load() }

// due reports whether now is at or past today's target time and today has
// not fired yet.
func (s *Scheduler) due(now time.Time, target timeOfDay) bool {
	if last, ok := s.lastDay.Load().(string); ok && last == now.Format("2006-01-02") {
		return false
	}
	return pastTarget(now, target)
}

// seedLastDay marks today as already handled when the scheduler starts after
// the run time has passed. Starting the daemon at 22:31 with a 09:00 run time
// must wait for tomorrow's occurrence, not trigger on the first tick.
func (s *Scheduler) seedLastDay(now time.Time, target timeOfDay) {
	if pastTarget(now, target) {
		s.lastDay.Store(now.Format("2006-01-02"))
	}
}

func pastTarget(now time.Time, target timeOfDay) bool {
	return now.Hour() > target.hour ||
		(now.Hour() == target.hour && now.Minute() >= target.minute)
}

func (s *Scheduler) fire(ctx context.Context) {
	s.logger.Info("scheduled trigger", "mode", s.cfg.Mode)

	switch s.cfg.Mode {
	case "single":
		topic := s.cfg.DefaultTopic
		if _, err := s.generator.Run(ctx, topic); err != nil {
			s.logger.Error("scheduled video failed", "topic", topic, "error", err)
			return
		}
		s.logger.Info("scheduled video completed", "topic", topic)
	default:
		topics := s.batchTopics()
		if len(topics) == 0 {
			s.logger.Warn("no topics available for scheduled batch")
			return
		}
		summary := s.processor.ProcessAll(ctx, topics)
		s.logger.Info("scheduled batch completed",
			"successful", len(summary.Successful),
			"failed", len(summary.Failed),
		)
	}
}

func (s *Scheduler) batchTopics() []string {
	if s.cfg.AutoGenerateTopics {
		return GenerateTopics(s.cfg.TopicsPerRun)
	}
	topics, err := batch.LoadTopics(s.cfg.TopicsFile)
	if err != nil {
		s.logger.Error("cannot load topics file", "path", s.cfg.TopicsFile, "error", err)
		return nil
	}
	return topics
}

// GenerateTopics produces count topics by rotating through the channel's
// content categories.
func GenerateTopics(count int) []string {
	if count < 1 {
		count = 1
	}
	topics := make([]string, 0, count)
	for i := 0; i < count; i++ {
		topics = append(topics, "Amazing "+topicCategories[i%len(topicCategories)]+" Facts")
	}
	return topics
}

type timeOfDay struct {
	hour   int
	minute int
}

func parseRunTime(s string) (timeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return timeOfDay{}, fmt.Errorf("invalid run_time %q, expected HH:MM: %w", s, err)
	}
	return timeOfDay{hour: t.Hour(), minute: t.Minute()}, nil
}
