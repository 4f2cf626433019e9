package tools

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Doctor probes the availability of the external binaries and services
// that the pipeline engines depend on.
type Doctor struct {
	ffmpeg    string
	ffprobe   string
	piper     string
	whisper   string
	ollamaURL string
	logger    *slog.Logger
}

// NewDoctor creates a Doctor for the configured binaries. Empty binary names
// fall back to the conventional names on PATH.
func NewDoctor(piperBin, whisperBin, ollamaURL string, logger *slog.Logger) *Doctor {
	if piperBin == "" {
		piperBin = "piper"
	}
	if whisperBin == "" {
		whisperBin = "whisper"
	}
	return &Doctor{
		ffmpeg:    "ffmpeg",
		ffprobe:   "ffprobe",
		piper:     piperBin,
		whisper:   whisperBin,
		ollamaURL: ollamaURL,
		logger:    logger,
	}
}

// Probe checks every tool and the Ollama endpoint.
func (d *Doctor) Probe(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{
		Tools:    map[string]ToolInfo{},
		ProbedAt: time.Now(),
	}

	caps.Tools["ffmpeg"] = probeBinary(ctx, d.ffmpeg, "-version")
	caps.Tools["ffprobe"] = probeBinary(ctx, d.ffprobe, "-version")
	caps.Tools["piper"] = probeBinary(ctx, d.piper, "--version")
	caps.Tools["whisper"] = probeBinary(ctx, d.whisper, "--help")

	caps.HasRender = caps.Tools["ffmpeg"].Available
	caps.HasProbe = caps.Tools["ffprobe"].Available
	caps.HasTTS = caps.Tools["piper"].Available
	caps.HasTranscribe = caps.Tools["whisper"].Available

	if d.ollamaURL != "" {
		caps.OllamaReachable = probeHTTP(ctx, d.ollamaURL)
	}

	avail, total := caps.Summary()
	d.logger.Info("doctor probe complete",
		"render", caps.HasRender,
		"probe", caps.HasProbe,
		"tts", caps.HasTTS,
		"transcribe", caps.HasTranscribe,
		"ollama", caps.OllamaReachable,
		"tools_available", avail,
		"tools_total", total,
	)

	return caps, nil
}

func probeBinary(ctx context.Context, name, versionArg string) ToolInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return ToolInfo{Available: false, Error: err.Error()}
	}

	info := ToolInfo{Available: true, Path: path}

	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(vctx, path, versionArg)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err == nil {
		if line, _, ok := strings.Cut(out.String(), "\n"); ok || line != "" {
			info.Version = strings.TrimSpace(line)
		}
	}

	return info
}

func probeHTTP(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// CachedDoctor wraps a Doctor to cache probe results with a configurable TTL.
// This avoids re-running LookPath and version checks on every request.
type CachedDoctor struct {
	doctor *Doctor
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedDoctor creates a caching wrapper around doctor probes.
func NewCachedDoctor(doctor *Doctor, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		doctor: doctor,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

// Peek returns the cached capabilities without probing, possibly nil.
func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.doctor.Probe(ctx)
	if err != nil {
		d.logger.Warn("doctor probe failed", "error", err)
		// Return stale cache if available
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
