package schedule

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/storyforge/storyforge/internal/pipeline"
	"github.com/storyforge/storyforge/internal/runs"
)

const defaultPollInterval = 5 * time.Second

// Worker drains pending runs from the store, oldest first. Runs enqueued
// through the API are picked up here.
type Worker struct {
	service      *pipeline.Service
	store        runs.Store
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewWorker(service *pipeline.Service, store runs.Store, logger *slog.Logger) *Worker {
	return &Worker{
		service:      service,
		store:        store,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	if w.running.Swap(true) {
		return
	}

	w.logger.Info("run worker started", "poll_interval", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("run worker stopping")
			w.running.Store(false)
			return
		case <-ticker.C:
			if !w.paused.Load() {
				w.processNextRun(ctx)
			}
		}
	}
}

func (w *Worker) Pause() {
	w.paused.Store(true)
	w.logger.Info("run worker paused")
}

func (w *Worker) Resume() {
	w.paused.Store(false)
	w.logger.Info("run worker resumed")
}

func (w *Worker) IsPaused() bool  { return w.paused.Load() }
func (w *Worker) IsRunning() bool { return w.running.Load() }

func (w *Worker) processNextRun(ctx context.Context) {
	run := w.nextPending(ctx)
	if run == nil {
		return
	}

	w.logger.Info("processing queued run", "run_id", run.ID, "topic", run.Topic)
	if err := w.service.Execute(ctx, run); err != nil {
		// Execute records the failure on the run itself.
		w.logger.Error("queued run failed", "run_id", run.ID, "error", err)
	}
}

func (w *Worker) nextPending(ctx context.Context) *runs.Run {
	all, err := w.store.List(ctx, 0)
	if err != nil {
		w.logger.Error("cannot list runs", "error", err)
		return nil
	}

	// List is newest first; walk backwards for the oldest pending run.
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Status == runs.StatusPending {
			return all[i]
		}
	}
	return nil
}
