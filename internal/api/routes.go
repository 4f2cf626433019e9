package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/runs"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/runs", listRunsHandler(cfg))
		r.Get("/runs/{id}", getRunHandler(cfg))
		r.Get("/runs/{id}/video", runVideoHandler(cfg))
		r.Post("/generate", generateHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		all, err := cfg.Store.List(ctx, 0)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "cannot list runs", "INTERNAL_ERROR")
			return
		}

		state := "idle"
		if cfg.Worker != nil && cfg.Worker.IsPaused() {
			state = "paused"
		}

		resp := StatusResponse{RunsTotal: len(all)}
		for _, run := range all {
			switch run.Status {
			case runs.StatusPending:
				resp.RunsPending++
			case runs.StatusRunning:
				resp.RunsRunning++
				if resp.ActiveRun == nil {
					rr := RunToResponse(run)
					resp.ActiveRun = &rr
					state = "generating"
				}
			case runs.StatusFailed:
				if resp.LastError == "" {
					resp.LastError = run.Error
				}
			}
		}
		if resp.LastError != "" && state == "idle" {
			state = "error"
		}
		resp.State = state

		if cfg.Doctor != nil {
			if caps, err := cfg.Doctor.Get(ctx); err == nil && caps != nil {
				avail, total := caps.Summary()
				resp.Capabilities = &CapabilityResponse{
					CanRender:       caps.HasRender,
					CanTranscribe:   caps.HasTranscribe,
					CanSynthesize:   caps.HasTTS,
					OllamaReachable: caps.OllamaReachable,
					LastProbeAt:     caps.ProbedAt.Format(time.RFC3339),
					ToolsAvailable:  avail,
					ToolsTotal:      total,
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listRunsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cfg.Store.List(r.Context(), 100)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "cannot list runs", "INTERNAL_ERROR")
			return
		}

		resp := RunsResponse{Runs: make([]RunResponse, len(list))}
		for i, run := range list {
			resp.Runs[i] = RunToResponse(run)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getRunHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, runs.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "run not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, "cannot load run", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, RunToResponse(run))
	}
}

func runVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, runs.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "run not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, "cannot load run", "INTERNAL_ERROR")
			return
		}
		if run.VideoPath == "" {
			WriteError(w, http.StatusNotFound, "run has no rendered video", "NOT_FOUND")
			return
		}
		if err := cfg.Preview.ServeVideo(w, r, run.VideoPath); err != nil {
			cfg.Logger.Error("video streaming failed", "run_id", run.ID, "error", err)
		}
	}
}

func generateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		req.Topic = strings.TrimSpace(req.Topic)
		if req.Topic == "" {
			WriteError(w, http.StatusBadRequest, "topic is required", "BAD_REQUEST")
			return
		}

		run := runs.NewRun(req.Topic)
		if err := cfg.Store.Create(r.Context(), run); err != nil {
			WriteError(w, http.StatusInternalServerError, "cannot enqueue run", "INTERNAL_ERROR")
			return
		}

		cfg.Logger.Info("run enqueued", "run_id", run.ID, "topic", req.Topic)
		WriteJSON(w, http.StatusAccepted, GenerateResponse{RunID: run.ID})
	}
}
