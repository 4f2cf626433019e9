// Package batch processes a list of topics sequentially, collecting
// per-topic failures without aborting the rest of the list.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/runs"
)

// Generator is the per-topic pipeline entry point.
type Generator interface {
	Run(ctx context.Context, topic string) (*runs.Run, error)
}

// Failure records one topic that could not be generated.
type Failure struct {
	Topic string
	Err   error
}

// Summary is the outcome of a batch.
type Summary struct {
	Total      int
	Successful []string
	Failed     []Failure
}

// LoadTopics reads topics from path, one per line. Blank lines and lines
// starting with # are skipped.
func LoadTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open topics file: %w", err)
	}
	defer f.Close()

	var topics []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	return topics, scanner.Err()
}

// Processor runs topics through the generator one at a time.
type Processor struct {
	generator    Generator
	errorLogPath string
	logger       *slog.Logger
}

func NewProcessor(generator Generator, errorLogPath string, logger *slog.Logger) *Processor {
	return &Processor{generator: generator, errorLogPath: errorLogPath, logger: logger}
}

// ProcessAll generates a video per topic. Failures are logged and appended
// to the error log file; processing continues with the next topic. Context
// cancellation stops the batch between topics.
func (p *Processor) ProcessAll(ctx context.Context, topics []string) Summary {
	summary := Summary{Total: len(topics)}

	for i, topic := range topics {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("batch interrupted", "remaining", len(topics)-i)
			break
		}

		p.logger.Info("processing topic", "index", i+1, "total", len(topics), "topic", topic)

		run, err := p.generator.Run(ctx, topic)
		if err != nil {
			p.logger.Error("topic failed", "topic", topic, "error", err)
			p.appendErrorLog(topic, err)
			summary.Failed = append(summary.Failed, Failure{Topic: topic, Err: err})
			continue
		}

		p.logger.Info("topic completed", "topic", topic, "run_id", run.ID, "video", run.VideoPath)
		summary.Successful = append(summary.Successful, topic)
	}

	p.logger.Info("batch finished",
		"total", summary.Total,
		"successful", len(summary.Successful),
		"failed", len(summary.Failed),
	)
	return summary
}

func (p *Processor) appendErrorLog(topic string, runErr error) {
	if p.errorLogPath == "" {
		return
	}
	f, err := os.OpenFile(p.errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		p.logger.Error("cannot open batch error log", "path", p.errorLogPath, "error", err)
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "%s\ntopic: %s\nerror: %v\n\n",
		time.Now().UTC().Format(time.RFC3339), topic, runErr)
}
