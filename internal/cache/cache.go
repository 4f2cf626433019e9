// Package cache provides the on-disk clip cache keyed by asset identity.
// Each cached clip is a single file named by its source ID; two queries that
// resolve to the same underlying footage share one entry.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const clipExt = ".mp4"

// Store is the identity-keyed clip store contract. Implementations must
// tolerate concurrent Put calls for the same key: writes are whole-file and
// last-writer-wins, which is safe because same-identity payloads are
// identical.
type Store interface {
	// Get returns the local path for sourceID if it is cached.
	Get(sourceID string) (path string, ok bool)

	// Put streams r into the cache under sourceID and returns the local path.
	Put(sourceID string, r io.Reader) (path string, err error)
}

// DirStore is a flat directory of clip files. The directory is created
// lazily on the first write and is never torn down.
type DirStore struct {
	dir string

	initOnce sync.Once
	initErr  error
}

// NewDirStore creates a DirStore rooted at dir. The directory is not
// created until the first Put.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Path returns the location a clip for sourceID would occupy, cached or not.
func (s *DirStore) Path(sourceID string) string {
	return filepath.Join(s.dir, sourceID+clipExt)
}

func (s *DirStore) Get(sourceID string) (string, bool) {
	path := s.Path(sourceID)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (s *DirStore) Put(sourceID string, r io.Reader) (string, error) {
	s.initOnce.Do(func() {
		s.initErr = os.MkdirAll(s.dir, 0755)
	})
	if s.initErr != nil {
		return "", fmt.Errorf("cannot create clip cache dir: %w", s.initErr)
	}

	dest := s.Path(sourceID)

	// Write to a private temp file first so a racing writer for the same
	// identity never observes a partial clip; the rename replaces whole
	// files atomically on the same filesystem.
	tmp, err := os.CreateTemp(s.dir, sourceID+".*.part")
	if err != nil {
		return "", fmt.Errorf("cannot create cache temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("cannot write clip %s: %w", sourceID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("cannot close clip %s: %w", sourceID, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("cannot finalise clip %s: %w", sourceID, err)
	}

	return dest, nil
}
