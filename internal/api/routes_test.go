package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storyforge/storyforge/internal/preview"
	"github.com/storyforge/storyforge/internal/runs"
)

const testToken = "test-token-123"

func testConfig(t *testing.T) ServerConfig {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := runs.NewFileStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	if err != nil {
		t.Fatalf("run store: %v", err)
	}
	return ServerConfig{
		Port:      0,
		AuthToken: testToken,
		Store:     store,
		Preview:   preview.NewServer(logger),
		Logger:    logger,
		StartTime: time.Now(),
	}
}

func doRequest(t *testing.T, cfg ServerConfig, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(cfg)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v\n%s", err, rr.Body.String())
	}
	return body
}

func TestHealthNoAuth(t *testing.T) {
	rr := doRequest(t, testConfig(t), http.MethodGet, "/health", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("health status = %v", body["status"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestAuthRequired(t *testing.T) {
	cfg := testConfig(t)

	for _, path := range []string{"/status", "/runs", "/runs/abc", "/runs/abc/video"} {
		rr := doRequest(t, cfg, http.MethodGet, path, "", false)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, rr.Code)
		}
	}

	rr := doRequest(t, cfg, http.MethodPost, "/generate", `{"topic":"x"}`, false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /generate without token: status = %d, want 401", rr.Code)
	}
}

func TestAuthWrongToken(t *testing.T) {
	cfg := testConfig(t)
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuthUnconfiguredToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthToken = ""
	rr := doRequest(t, cfg, http.MethodGet, "/status", "", true)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestGenerateEnqueuesRun(t *testing.T) {
	cfg := testConfig(t)

	rr := doRequest(t, cfg, http.MethodPost, "/generate", `{"topic":"Ancient Rome"}`, true)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202\n%s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	runID, _ := body["run_id"].(string)
	if runID == "" {
		t.Fatal("run_id missing")
	}

	run, err := cfg.Store.Get(context.Background(), runID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != runs.StatusPending || run.Topic != "Ancient Rome" {
		t.Errorf("enqueued run = %+v", run)
	}
}

func TestGenerateRejectsEmptyTopic(t *testing.T) {
	rr := doRequest(t, testConfig(t), http.MethodPost, "/generate", `{"topic":"  "}`, true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestGenerateRejectsBadBody(t *testing.T) {
	rr := doRequest(t, testConfig(t), http.MethodPost, "/generate", `{not json`, true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestListAndGetRuns(t *testing.T) {
	cfg := testConfig(t)
	run := runs.NewRun("topic one")
	if err := cfg.Store.Create(context.Background(), run); err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, cfg, http.MethodGet, "/runs", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list RunsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(list.Runs) != 1 || list.Runs[0].ID != run.ID {
		t.Errorf("runs = %+v", list.Runs)
	}

	rr = doRequest(t, cfg, http.MethodGet, "/runs/"+run.ID, "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["topic"] != "topic one" {
		t.Errorf("topic = %v", body["topic"])
	}
}

func TestGetRunNotFound(t *testing.T) {
	rr := doRequest(t, testConfig(t), http.MethodGet, "/runs/nope", "", true)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestStatusCountsRuns(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	pending := runs.NewRun("pending one")
	if err := cfg.Store.Create(ctx, pending); err != nil {
		t.Fatal(err)
	}
	failed := runs.NewRun("failed one")
	if err := cfg.Store.Create(ctx, failed); err != nil {
		t.Fatal(err)
	}
	failed.Status = runs.StatusFailed
	failed.Error = "render exploded"
	if err := cfg.Store.Update(ctx, failed); err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, cfg, http.MethodGet, "/status", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.RunsTotal != 2 || resp.RunsPending != 1 {
		t.Errorf("counts = %+v", resp)
	}
	if resp.State != "error" || resp.LastError != "render exploded" {
		t.Errorf("state = %q, last_error = %q", resp.State, resp.LastError)
	}
	if resp.Capabilities != nil {
		t.Error("capabilities should be omitted when doctor is nil")
	}
}

func TestRunVideoStreaming(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	videoPath := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(videoPath, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	run := runs.NewRun("topic")
	if err := cfg.Store.Create(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Status = runs.StatusCompleted
	run.VideoPath = videoPath
	if err := cfg.Store.Update(ctx, run); err != nil {
		t.Fatal(err)
	}

	router := NewRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/runs/"+run.ID+"/video", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Range", "bytes=0-3")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if rr.Body.String() != "0123" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestRunVideoMissingRender(t *testing.T) {
	cfg := testConfig(t)
	run := runs.NewRun("topic")
	if err := cfg.Store.Create(context.Background(), run); err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, cfg, http.MethodGet, "/runs/"+run.ID+"/video", "", true)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
