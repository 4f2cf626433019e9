// Package tools provides subprocess-based execution of the external media
// tooling storyforge depends on (ffmpeg, ffprobe, piper, whisper) with
// structured results, plus a cached environment doctor and a media prober.
package tools

import "time"

// RunResult is the structured outcome of executing a tool subprocess.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	StderrTail string        `json:"stderr_tail,omitempty"` // last N bytes of stderr
	Duration   time.Duration `json:"duration"`
}

// IsSuccess returns true when the subprocess exited cleanly.
func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// ToolInfo represents the availability status of a single external binary.
type ToolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities reports what the installed environment can do, as probed by
// the doctor.
type Capabilities struct {
	Tools           map[string]ToolInfo `json:"tools"`
	OllamaReachable bool                `json:"ollama_reachable"`

	HasRender     bool      `json:"-"` // ffmpeg
	HasProbe      bool      `json:"-"` // ffprobe
	HasTTS        bool      `json:"-"` // piper
	HasTranscribe bool      `json:"-"` // whisper
	ProbedAt      time.Time `json:"-"`
}

// Summary counts available tools against the total probed.
func (c *Capabilities) Summary() (available, total int) {
	for _, t := range c.Tools {
		total++
		if t.Available {
			available++
		}
	}
	return available, total
}
