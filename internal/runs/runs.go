// Package runs tracks generation runs in an append-only JSONL file with an
// in-memory index. The newest record for a run ID wins on reload.
package runs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrNotFound = errors.New("run not found")

// Run is one end-to-end generation attempt.
type Run struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status"`
	Step      string    `json:"step,omitempty"`
	VideoPath string    `json:"video_path,omitempty"`
	UploadURL string    `json:"upload_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRun(topic string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        uuid.NewString(),
		Topic:     topic,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type Store interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
}

// FileStore persists runs as JSON lines. Every Create and Update appends a
// full snapshot of the run; reload keeps the last snapshot per ID.
type FileStore struct {
	path string

	mu    sync.RWMutex
	index map[string]*Run
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, index: make(map[string]*Run)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Run
		if err := json.Unmarshal(line, &r); err != nil {
			// Skip a torn tail line from an interrupted write.
			continue
		}
		if r.ID == "" {
			continue
		}
		s.index[r.ID] = &r
	}
	return scanner.Err()
}

func (s *FileStore) append(run *Run) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

func (s *FileStore) Create(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	if err := s.append(run); err != nil {
		return err
	}
	cp := *run
	s.index[run.ID] = &cp
	return nil
}

func (s *FileStore) Update(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[run.ID]; !exists {
		return ErrNotFound
	}
	run.UpdatedAt = time.Now().UTC()
	if err := s.append(run); err != nil {
		return err
	}
	cp := *run
	s.index[run.ID] = &cp
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// List returns runs newest first, up to limit (0 means all).
func (s *FileStore) List(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.index))
	for _, r := range s.index {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
