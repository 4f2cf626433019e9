package api

import (
	"time"

	"github.com/storyforge/storyforge/internal/runs"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State        string              `json:"state"`
	LastError    string              `json:"last_error,omitempty"`
	RunsTotal    int                 `json:"runs_total"`
	RunsPending  int                 `json:"runs_pending"`
	RunsRunning  int                 `json:"runs_running"`
	ActiveRun    *RunResponse        `json:"active_run,omitempty"`
	Capabilities *CapabilityResponse `json:"capabilities,omitempty"`
}

type CapabilityResponse struct {
	CanRender       bool   `json:"can_render"`
	CanTranscribe   bool   `json:"can_transcribe"`
	CanSynthesize   bool   `json:"can_synthesize"`
	OllamaReachable bool   `json:"ollama_reachable"`
	LastProbeAt     string `json:"last_probe_at,omitempty"`
	ToolsAvailable  int    `json:"tools_available"`
	ToolsTotal      int    `json:"tools_total"`
}

type GenerateRequest struct {
	Topic string `json:"topic"`
}

type GenerateResponse struct {
	RunID string `json:"run_id"`
}

type RunResponse struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status"`
	Step      string `json:"step,omitempty"`
	VideoPath string `json:"video_path,omitempty"`
	UploadURL string `json:"upload_url,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RunToResponse(r *runs.Run) RunResponse {
	return RunResponse{
		ID:        r.ID,
		Topic:     r.Topic,
		Title:     r.Title,
		Status:    r.Status,
		Step:      r.Step,
		VideoPath: r.VideoPath,
		UploadURL: r.UploadURL,
		Error:     r.Error,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}
