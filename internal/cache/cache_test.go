package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDirStore_GetMiss(t *testing.T) {
	store := NewDirStore(filepath.Join(t.TempDir(), "clips"))

	if _, ok := store.Get("pexels-123"); ok {
		t.Error("Get() on empty store should miss")
	}
}

func TestDirStore_PutThenGet(t *testing.T) {
	store := NewDirStore(filepath.Join(t.TempDir(), "clips"))

	path, err := store.Put("pexels-123", strings.NewReader("clip bytes"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := store.Get("pexels-123")
	if !ok {
		t.Fatal("Get() missed after Put()")
	}
	if got != path {
		t.Errorf("Get() path = %s, want %s", got, path)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("cannot read cached clip: %v", err)
	}
	if string(data) != "clip bytes" {
		t.Errorf("cached content = %q, want %q", data, "clip bytes")
	}
}

func TestDirStore_LazyDirCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clips")
	store := NewDirStore(dir)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("cache dir should not exist before first Put")
	}

	if _, err := store.Put("a", strings.NewReader("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir missing after Put: %v", err)
	}
}

func TestDirStore_SameIdentityOverwrite(t *testing.T) {
	store := NewDirStore(filepath.Join(t.TempDir(), "clips"))

	first, err := store.Put("pexels-7", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	second, err := store.Put("pexels-7", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	if first != second {
		t.Errorf("same identity produced different paths: %s vs %s", first, second)
	}
}

func TestDirStore_ConcurrentWriters(t *testing.T) {
	store := NewDirStore(filepath.Join(t.TempDir(), "clips"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("pexels-%d", n%2)
			if _, err := store.Put(id, strings.NewReader("same payload")); err != nil {
				t.Errorf("concurrent Put(%s) error = %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"pexels-0", "pexels-1"} {
		path, ok := store.Get(id)
		if !ok {
			t.Fatalf("%s missing after concurrent writes", id)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "same payload" {
			t.Errorf("%s content = %q, want %q", id, data, "same payload")
		}
	}

	// No partial files left behind.
	entries, err := os.ReadDir(filepath.Dir(store.Path("x")))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".part") {
			t.Errorf("leftover partial file: %s", e.Name())
		}
	}
}
