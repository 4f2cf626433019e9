package schedule

import (
	"testing"
	"time"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/logging"
)

func TestParseRunTime(t *testing.T) {
	tod, err := parseRunTime("09:30")
	if err != nil {
		t.Fatalf("parseRunTime: %v", err)
	}
	if tod.hour != 9 || tod.minute != 30 {
		t.Errorf("parsed %+v", tod)
	}

	if _, err := parseRunTime("9am"); err == nil {
		t.Error("expected error for invalid format")
	}
	if _, err := parseRunTime("25:00"); err == nil {
		t.Error("expected error for out-of-range hour")
	}
}

func TestGenerateTopics(t *testing.T) {
	topics := GenerateTopics(7)
	if len(topics) != 7 {
		t.Fatalf("topics = %v", topics)
	}
	if topics[0] != "Amazing Technology Facts" {
		t.Errorf("topics[0] = %q", topics[0])
	}
	// Categories rotate, so index 5 wraps back to the first category.
	if topics[5] != topics[0] {
		t.Errorf("rotation broken: %q vs %q", topics[5], topics[0])
	}

	if got := GenerateTopics(0); len(got) != 1 {
		t.Errorf("zero count should produce one topic, got %v", got)
	}
}

func newTestScheduler(runTime string) *Scheduler {
	cfg := config.SchedulerConfig{RunTime: runTime, Mode: "batch"}
	return NewScheduler(cfg, nil, nil, logging.NewLogger("error"))
}

func TestDueFiresOncePerDay(t *testing.T) {
	s := newTestScheduler("09:00")
	target := timeOfDay{hour: 9, minute: 0}

	before := time.Date(2026, 3, 10, 8, 59, 0, 0, time.Local)
	if s.due(before, target) {
		t.Error("should not fire before the run time")
	}

	at := time.Date(2026, 3, 10, 9, 0, 30, 0, time.Local)
	if !s.due(at, target) {
		t.Error("should fire at the run time")
	}
	s.lastDay.Store(at.Format("2006-01-02"))

	later := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	if s.due(later, target) {
		t.Error("should not fire twice on the same day")
	}

	nextDay := time.Date(2026, 3, 11, 9, 1, 0, 0, time.Local)
	if !s.due(nextDay, target) {
		t.Error("should fire again the next day")
	}
}

func TestSeedLastDaySkipsElapsedRunTime(t *testing.T) {
	s := newTestScheduler("09:00")
	target := timeOfDay{hour: 9, minute: 0}

	// Daemon restarted in the evening, well past the run time.
	startedAt := time.Date(2026, 3, 10, 22, 31, 0, 0, time.Local)
	s.seedLastDay(startedAt, target)

	if s.due(startedAt.Add(time.Minute), target) {
		t.Error("start after the run time must not fire on the first tick")
	}

	nextDay := time.Date(2026, 3, 11, 9, 0, 30, 0, time.Local)
	if !s.due(nextDay, target) {
		t.Error("should fire at the next day's run time")
	}
}

func TestSeedLastDayKeepsUpcomingRunTime(t *testing.T) {
	s := newTestScheduler("09:00")
	target := timeOfDay{hour: 9, minute: 0}

	startedAt := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)
	s.seedLastDay(startedAt, target)

	at := time.Date(2026, 3, 10, 9, 0, 30, 0, time.Local)
	if !s.due(at, target) {
		t.Error("start before the run time should still fire the same day")
	}
}

func TestPauseResume(t *testing.T) {
	s := newTestScheduler("09:00")
	if s.IsPaused() {
		t.Error("new scheduler should not be paused")
	}
	s.Pause()
	if !s.IsPaused() {
		t.Error("Pause did not take effect")
	}
	s.Resume()
	if s.IsPaused() {
		t.Error("Resume did not take effect")
	}
}
