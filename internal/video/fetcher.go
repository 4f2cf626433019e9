package video

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/storyforge/storyforge/internal/cache"
	"github.com/storyforge/storyforge/internal/stock"
)

// ClipAsset is one locally available piece of footage. SourceID is the
// stable identity of the underlying footage, independent of which search
// term found it; it is the deduplication key everywhere.
type ClipAsset struct {
	SourceID  string
	LocalPath string
	Width     int
}

// Picker chooses one index out of n candidates. Pluggable so tests can
// inject determinism; the default is uniform random, which protects
// against similar queries always selecting the same top result.
type Picker interface {
	Pick(n int) int
}

// RandPicker is the production Picker.
type RandPicker struct{}

func (RandPicker) Pick(n int) int { return rand.Intn(n) }

// Fetcher resolves one search term to a cached clip file: one remote
// search, one candidate choice, one (possibly cached) binary.
type Fetcher struct {
	provider stock.Searcher
	store    cache.Store
	picker   Picker
	logger   *slog.Logger
}

func NewFetcher(provider stock.Searcher, store cache.Store, picker Picker, logger *slog.Logger) *Fetcher {
	if picker == nil {
		picker = RandPicker{}
	}
	return &Fetcher{provider: provider, store: store, picker: picker, logger: logger}
}

// Fetch resolves term to a ClipAsset. Every failure mode of the remote
// leg — network error, malformed response, empty result set, no usable
// file variant — maps to ErrNotFound so the caller can try its next term.
func (f *Fetcher) Fetch(ctx context.Context, term string) (ClipAsset, error) {
	videos, err := f.provider.Search(ctx, term)
	if err != nil {
		f.logger.Warn("stock search failed", "term", term, "error", err)
		return ClipAsset{}, fmt.Errorf("%w: search %q: %v", ErrNotFound, term, err)
	}
	if len(videos) == 0 {
		return ClipAsset{}, fmt.Errorf("%w: no results for %q", ErrNotFound, term)
	}

	chosen := videos[f.picker.Pick(len(videos))]
	file, ok := chosen.BestFile()
	if !ok {
		return ClipAsset{}, fmt.Errorf("%w: result %d for %q has no downloadable variant", ErrNotFound, chosen.ID, term)
	}

	// Identity comes from the remote result's own id, never the query:
	// different terms that surface the same footage share one cache entry.
	sourceID := fmt.Sprintf("pexels-%d", chosen.ID)

	if path, ok := f.store.Get(sourceID); ok {
		f.logger.Debug("clip cache hit", "source_id", sourceID, "term", term)
		return ClipAsset{SourceID: sourceID, LocalPath: path, Width: file.Width}, nil
	}

	body, err := f.provider.Download(ctx, file.Link)
	if err != nil {
		f.logger.Warn("clip download failed", "source_id", sourceID, "error", err)
		return ClipAsset{}, fmt.Errorf("%w: download %s: %v", ErrNotFound, sourceID, err)
	}
	defer body.Close()

	path, err := f.store.Put(sourceID, body)
	if err != nil {
		f.logger.Warn("clip cache write failed", "source_id", sourceID, "error", err)
		return ClipAsset{}, fmt.Errorf("%w: cache %s: %v", ErrNotFound, sourceID, err)
	}

	f.logger.Info("clip fetched", "term", term, "source_id", sourceID, "width", file.Width)
	return ClipAsset{SourceID: sourceID, LocalPath: path, Width: file.Width}, nil
}
