package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// scriptedFetcher returns one asset per distinct term, or a miss.
type scriptedFetcher struct {
	mu     sync.Mutex
	assets map[string]ClipAsset
	calls  atomic.Int64
}

func (s *scriptedFetcher) Fetch(ctx context.Context, term string) (ClipAsset, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[term]
	if !ok {
		return ClipAsset{}, fmt.Errorf("%w: %s", ErrNotFound, term)
	}
	return a, nil
}

func remoteAssets(n int) (map[string]ClipAsset, []string) {
	assets := make(map[string]ClipAsset, n)
	terms := make([]string, 0, n)
	for i := 0; i < n; i++ {
		term := fmt.Sprintf("term%d", i)
		assets[term] = ClipAsset{
			SourceID:  fmt.Sprintf("pexels-%d", i),
			LocalPath: fmt.Sprintf("/cache/pexels-%d.mp4", i),
		}
		terms = append(terms, term)
	}
	return assets, terms
}

func poolAssets(n int) []ClipAsset {
	pool := make([]ClipAsset, n)
	for i := range pool {
		pool[i] = ClipAsset{
			SourceID:  fmt.Sprintf("local-%d.mp4", i),
			LocalPath: fmt.Sprintf("/stock/local-%d.mp4", i),
		}
	}
	return pool
}

func mustPlan(t *testing.T, narration float64) Plan {
	t.Helper()
	plan, err := NewPlan(narration)
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func uniqueIDs(clips []ClipAsset) map[string]int {
	ids := map[string]int{}
	for _, c := range clips {
		ids[c.SourceID]++
	}
	return ids
}

func TestSupply_ExactCountFromRemote(t *testing.T) {
	assets, terms := remoteAssets(8)
	s := NewSupplier(&scriptedFetcher{assets: assets}, testLogger())
	plan := mustPlan(t, 14.0) // 4 clips

	clips, err := s.Supply(context.Background(), plan, terms, nil)
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}

	if len(clips) != plan.ClipCount {
		t.Fatalf("got %d clips, want %d", len(clips), plan.ClipCount)
	}
	for id, count := range uniqueIDs(clips) {
		if count > 1 {
			t.Errorf("duplicate source id %s with ample remote supply", id)
		}
	}
}

func TestSupply_FillsFromLocalPool(t *testing.T) {
	// Only 2 distinct remote assets for a 4-clip plan.
	assets, terms := remoteAssets(2)
	s := NewSupplier(&scriptedFetcher{assets: assets}, testLogger())
	plan := mustPlan(t, 14.0)

	clips, err := s.Supply(context.Background(), plan, terms, poolAssets(5))
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}

	if len(clips) != plan.ClipCount {
		t.Fatalf("got %d clips, want %d", len(clips), plan.ClipCount)
	}
	for id, count := range uniqueIDs(clips) {
		if count > 1 {
			t.Errorf("duplicate source id %s while unique supply remained", id)
		}
	}
}

func TestSupply_RecyclesWhenExhausted(t *testing.T) {
	s := NewSupplier(nil, testLogger())
	plan := mustPlan(t, 14.0) // 4 clips

	clips, err := s.Supply(context.Background(), plan, nil, poolAssets(2))
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}

	if len(clips) != plan.ClipCount {
		t.Fatalf("got %d clips, want %d", len(clips), plan.ClipCount)
	}

	ids := uniqueIDs(clips)
	if len(ids) != 2 {
		t.Errorf("got %d distinct ids, want 2 (recycled pool)", len(ids))
	}
	for _, count := range ids {
		if count != 2 {
			t.Errorf("positional recycling should reuse each entry twice, got %v", ids)
		}
	}
}

func TestSupply_NoAssetsAnywhere(t *testing.T) {
	s := NewSupplier(&scriptedFetcher{assets: nil}, testLogger())
	plan := mustPlan(t, 10.0)

	_, err := s.Supply(context.Background(), plan, []string{"miss1", "miss2"}, nil)
	if !errors.Is(err, ErrNoAssets) {
		t.Errorf("Supply() error = %v, want ErrNoAssets", err)
	}
}

func TestSupply_NoQueriesNoPool(t *testing.T) {
	s := NewSupplier(&scriptedFetcher{assets: nil}, testLogger())
	plan := mustPlan(t, 5.0)

	_, err := s.Supply(context.Background(), plan, nil, nil)
	if !errors.Is(err, ErrNoAssets) {
		t.Errorf("Supply() error = %v, want ErrNoAssets", err)
	}
}

func TestSupply_SingleClipPlan(t *testing.T) {
	assets, terms := remoteAssets(1)
	s := NewSupplier(&scriptedFetcher{assets: assets}, testLogger())
	plan := mustPlan(t, 0)

	clips, err := s.Supply(context.Background(), plan, terms, nil)
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}
	if len(clips) != 1 {
		t.Errorf("got %d clips, want 1", len(clips))
	}
}

func TestSupply_DuplicateRemoteIdentitiesCollapse(t *testing.T) {
	// Every term resolves to the same footage; pool provides the rest.
	fetcher := &scriptedFetcher{assets: map[string]ClipAsset{
		"a": {SourceID: "pexels-1", LocalPath: "/cache/pexels-1.mp4"},
		"b": {SourceID: "pexels-1", LocalPath: "/cache/pexels-1.mp4"},
	}}
	s := NewSupplier(fetcher, testLogger())
	plan := mustPlan(t, 8.0) // 3 clips

	clips, err := s.Supply(context.Background(), plan, []string{"a", "b"}, poolAssets(4))
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}

	if len(clips) != plan.ClipCount {
		t.Fatalf("got %d clips, want %d", len(clips), plan.ClipCount)
	}

	ids := uniqueIDs(clips)
	if ids["pexels-1"] != 1 {
		t.Errorf("remote identity admitted %d times, want 1", ids["pexels-1"])
	}
}

func TestSupply_ManyClipsBoundedWorkers(t *testing.T) {
	assets, terms := remoteAssets(40)
	s := NewSupplier(&scriptedFetcher{assets: assets}, testLogger())
	plan := mustPlan(t, 60.0) // 18 clips

	clips, err := s.Supply(context.Background(), plan, terms, nil)
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}
	if len(clips) != plan.ClipCount {
		t.Fatalf("got %d clips, want %d", len(clips), plan.ClipCount)
	}
	for id, count := range uniqueIDs(clips) {
		if count > 1 {
			t.Errorf("duplicate id %s", id)
		}
	}
}
