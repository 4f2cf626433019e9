// Package pipeline orchestrates the full generation flow: script,
// narration, subtitles, video composition, and optional upload.
package pipeline

import (
	"log/slog"

	"github.com/storyforge/storyforge/internal/cache"
	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/script"
	"github.com/storyforge/storyforge/internal/stock"
	"github.com/storyforge/storyforge/internal/subtitle"
	"github.com/storyforge/storyforge/internal/tools"
	"github.com/storyforge/storyforge/internal/tts"
	"github.com/storyforge/storyforge/internal/upload"
	"github.com/storyforge/storyforge/internal/video"
)

// Engines bundles one implementation per pipeline stage.
type Engines struct {
	Script   script.Engine
	TTS      tts.Engine
	Subtitle subtitle.Engine
	Video    video.Engine
	Upload   upload.Engine
}

// BuildEngines resolves the configured engine names to implementations.
// Unknown names fall back to the stage's mock with a warning so a typo in
// settings degrades the output instead of killing the daemon.
func BuildEngines(cfg config.Settings, runner tools.Runner, logger *slog.Logger) Engines {
	var e Engines

	switch cfg.Engines.Script {
	case "ollama":
		e.Script = script.NewOllamaEngine(cfg.Ollama.BaseURL, cfg.Ollama.Model, logger)
	case "mock":
		e.Script = script.NewMock(logger)
	default:
		logger.Warn("unknown script engine, using mock", "engine", cfg.Engines.Script)
		e.Script = script.NewMock(logger)
	}

	switch cfg.Engines.Audio {
	case "piper":
		e.TTS = tts.NewPiperEngine(cfg.Piper.Binary, cfg.Piper.Model, runner, logger)
	case "mock":
		e.TTS = tts.NewMock(logger)
	default:
		logger.Warn("unknown audio engine, using mock", "engine", cfg.Engines.Audio)
		e.TTS = tts.NewMock(logger)
	}

	switch cfg.Engines.Subtitle {
	case "whisper":
		e.Subtitle = subtitle.NewWhisperEngine(cfg.Whisper.Binary, cfg.Whisper.Model, runner, logger)
	case "mock":
		e.Subtitle = subtitle.NewMock(logger)
	default:
		logger.Warn("unknown subtitle engine, using mock", "engine", cfg.Engines.Subtitle)
		e.Subtitle = subtitle.NewMock(logger)
	}

	switch cfg.Engines.Video {
	case "ffmpeg":
		e.Video = buildVideoEngine(cfg, runner, logger)
	case "mock":
		e.Video = video.NewMock(logger)
	default:
		logger.Warn("unknown video engine, using mock", "engine", cfg.Engines.Video)
		e.Video = video.NewMock(logger)
	}

	switch cfg.Engines.Upload {
	case "youtube":
		e.Upload = upload.NewYouTubeEngine(cfg.Upload.ClientSecrets, cfg.Upload.TokenFile, logger)
	case "mock":
		e.Upload = upload.NewStub(logger)
	default:
		logger.Warn("unknown upload engine, using mock", "engine", cfg.Engines.Upload)
		e.Upload = upload.NewStub(logger)
	}

	return e
}

func buildVideoEngine(cfg config.Settings, runner tools.Runner, logger *slog.Logger) video.Engine {
	var fetcher video.ClipFetcher
	if cfg.RemoteStockEnabled() {
		provider := stock.NewHTTPClient(cfg.Stock.APIKey, cfg.Stock.PerPage, cfg.Stock.Orientation, logger)
		store := cache.NewDirStore(cfg.Paths.CacheDir)
		fetcher = video.NewFetcher(provider, store, video.RandPicker{}, logger)
	} else {
		logger.Warn("no stock API key configured, using local clip pool only")
	}

	supplier := video.NewSupplier(fetcher, logger)
	invoker := video.NewInvoker(runner, logger)
	prober := tools.NewFFprobeProber(logger)

	return video.NewFFmpegEngine(prober, supplier, invoker, video.Options{
		StockDir:      cfg.Paths.StockDir,
		MusicDir:      cfg.Music.Dir,
		MusicEnabled:  cfg.Music.Enabled,
		MusicVolumeDB: cfg.Music.VolumeDB,
	}, logger)
}
