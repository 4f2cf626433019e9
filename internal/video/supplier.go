package video

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxFetchWorkers = 5

// ClipFetcher is the single-term fetch contract the supplier fans out over.
type ClipFetcher interface {
	Fetch(ctx context.Context, term string) (ClipAsset, error)
}

// Supplier assembles exactly plan.ClipCount clips from the remote provider
// and a local pool, preferring unique footage and recycling only when
// supply is exhausted.
type Supplier struct {
	fetcher ClipFetcher
	logger  *slog.Logger
}

func NewSupplier(fetcher ClipFetcher, logger *slog.Logger) *Supplier {
	return &Supplier{fetcher: fetcher, logger: logger}
}

// Supply returns an ordered set of exactly plan.ClipCount clips.
//
// Remote terms are tried concurrently with a bounded worker pool; the first
// plan.ClipCount unique-by-identity successes win and later results are
// discarded. Shortfall is filled from localPool (unused identities first,
// shuffled), then by positional recycling, which is flagged as a degraded
// result. Zero clips from every path is ErrNoAssets.
func (s *Supplier) Supply(ctx context.Context, plan Plan, queries []string, localPool []ClipAsset) ([]ClipAsset, error) {
	need := plan.ClipCount

	var collected []ClipAsset
	used := make(map[string]bool)

	if s.fetcher != nil && len(queries) > 0 {
		// Twice as many attempts as needed clips: some will miss, some
		// will duplicate an already-collected identity.
		working := make([]string, 0, 2*need)
		for i := 0; len(working) < 2*need; i++ {
			working = append(working, queries[i%len(queries)])
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		workers := need
		if workers > maxFetchWorkers {
			workers = maxFetchWorkers
		}
		g.SetLimit(workers)

		for _, term := range working {
			term := term
			g.Go(func() error {
				mu.Lock()
				done := len(collected) >= need
				mu.Unlock()
				if done {
					// Quota met; skip without cancelling siblings.
					return nil
				}

				asset, err := s.fetcher.Fetch(gctx, term)
				if err != nil {
					// Soft miss; other terms may still succeed.
					return nil
				}

				mu.Lock()
				defer mu.Unlock()
				if len(collected) >= need || used[asset.SourceID] {
					// Late or duplicate result: discarded, but its
					// download already settled into the shared cache.
					return nil
				}
				used[asset.SourceID] = true
				collected = append(collected, asset)
				return nil
			})
		}
		g.Wait()

		s.logger.Info("remote clip supply complete",
			"wanted", need,
			"fetched", len(collected),
			"attempts", len(working),
		)
	}

	if len(collected) < need && len(localPool) > 0 {
		collected = s.fillFromPool(collected, used, localPool, need)
	}

	if len(collected) == 0 {
		return nil, ErrNoAssets
	}

	if len(collected) < need {
		// Unique supply exhausted everywhere: recycle positionally.
		shortfall := need - len(collected)
		s.logger.Warn("clip supply exhausted, recycling assets",
			"wanted", need,
			"unique", len(collected),
			"shortfall", shortfall,
		)
		uniqueCount := len(collected)
		for i := 0; len(collected) < need; i++ {
			collected = append(collected, collected[i%uniqueCount])
		}
	}

	// Final order is independent of fetch completion order, so remote and
	// locally filled clips interleave instead of clustering.
	rand.Shuffle(len(collected), func(i, j int) {
		collected[i], collected[j] = collected[j], collected[i]
	})

	return collected, nil
}

// fillFromPool tops up collected from the local pool, preferring entries
// whose identity has not been used, in shuffled order to avoid positional
// bias.
func (s *Supplier) fillFromPool(collected []ClipAsset, used map[string]bool, pool []ClipAsset, need int) []ClipAsset {
	candidates := make([]ClipAsset, len(pool))
	copy(candidates, pool)
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	before := len(collected)
	for _, c := range candidates {
		if len(collected) >= need {
			break
		}
		if used[c.SourceID] {
			continue
		}
		used[c.SourceID] = true
		collected = append(collected, c)
	}

	if added := len(collected) - before; added > 0 {
		s.logger.Info("filled clips from local pool", "added", added, "pool_size", len(pool))
	}

	return collected
}
