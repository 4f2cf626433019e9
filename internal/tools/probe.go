package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober obtains media metadata for a local file.
type Prober interface {
	// Duration returns the container duration in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobeProber is the production implementation of Prober, backed by
// ffprobe's JSON output.
type FFprobeProber struct {
	logger *slog.Logger
}

func NewFFprobeProber(logger *slog.Logger) *FFprobeProber {
	return &FFprobeProber{logger: logger}
}

func (p *FFprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	type probed struct {
		out string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// ffmpeg-go's Probe has no context variant; bound it ourselves.
	ch := make(chan probed, 1)
	go func() {
		out, err := ffmpeg.Probe(path)
		ch <- probed{out, err}
	}()

	var out string
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("probe %s: %w", path, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return 0, fmt.Errorf("probe %s: %w", path, res.err)
		}
		out = res.out
	}

	dur := gjson.Get(out, "format.duration")
	if !dur.Exists() {
		return 0, fmt.Errorf("probe %s: no format.duration in ffprobe output", path)
	}

	seconds := dur.Float()
	if seconds < 0 {
		return 0, fmt.Errorf("probe %s: negative duration %f", path, seconds)
	}

	p.logger.Debug("probed media duration", "path", path, "seconds", seconds)
	return seconds, nil
}

// StubProber returns a fixed duration, for tests and mock engines.
type StubProber struct {
	Seconds float64
	Err     error
}

func (p *StubProber) Duration(ctx context.Context, path string) (float64, error) {
	if p.Err != nil {
		return 0, p.Err
	}
	return p.Seconds, nil
}
