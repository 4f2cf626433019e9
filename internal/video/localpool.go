package video

import (
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// ScanPool lists the local stock directory as ClipAssets, using the
// filename as identity. A missing directory is an empty pool, not an error;
// the pool is a fallback, rescanned at each supply.
func ScanPool(dir string, logger *slog.Logger) []ClipAsset {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read local stock dir", "dir", dir, "error", err)
		}
		return nil
	}

	var pool []ClipAsset
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp4") {
			continue
		}
		pool = append(pool, ClipAsset{
			SourceID:  e.Name(),
			LocalPath: filepath.Join(dir, e.Name()),
		})
	}

	return pool
}

var musicExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

// PickMusic selects a random background track from dir, or "" when the
// directory is absent or holds no audio files.
func PickMusic(dir string, logger *slog.Logger) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var tracks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if musicExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			tracks = append(tracks, filepath.Join(dir, e.Name()))
		}
	}

	if len(tracks) == 0 {
		logger.Warn("no music files found", "dir", dir)
		return ""
	}

	selected := tracks[rand.Intn(len(tracks))]
	logger.Info("selected background music", "track", filepath.Base(selected))
	return selected
}
