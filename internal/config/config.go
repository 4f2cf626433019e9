// Package config provides configuration management for storyforge.
// Configuration is loaded from a settings.yaml file layered over built-in
// defaults, with environment variable overrides applied last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort       = 8791
	DefaultLogLevel   = "info"
	DefaultDataDir    = ".storyforge"
	DefaultSettings   = "settings.yaml"
	DefaultTopicsFile = "topics.txt"

	// Environment variable names
	EnvPort        = "STORYFORGE_PORT"
	EnvLogLevel    = "STORYFORGE_LOG_LEVEL"
	EnvDataDir     = "STORYFORGE_DATA_DIR"
	EnvAuthToken   = "STORYFORGE_AUTH_TOKEN"
	EnvPexelsKey   = "PEXELS_API_KEY"
	EnvOllamaURL   = "OLLAMA_BASE_URL"
	EnvOllamaModel = "OLLAMA_MODEL"

	// Stock fetch defaults
	DefaultStockPerPage     = 5
	DefaultStockOrientation = "portrait"

	// Music defaults
	DefaultMusicVolumeDB = -20
)

// EnginesConfig selects the implementation for each pipeline stage.
// Recognised values: ollama, piper, whisper, ffmpeg, youtube, mock*.
type EnginesConfig struct {
	Script   string `yaml:"script"`
	Audio    string `yaml:"audio"`
	Subtitle string `yaml:"subtitle"`
	Video    string `yaml:"video"`
	Upload   string `yaml:"upload"`
}

// OllamaConfig holds the LLM endpoint settings for script generation.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// PiperConfig holds the TTS binary settings.
type PiperConfig struct {
	Binary string `yaml:"binary"`
	Model  string `yaml:"model"`
}

// WhisperConfig holds the transcription binary settings.
type WhisperConfig struct {
	Binary string `yaml:"binary"`
	Model  string `yaml:"model"`
}

// StockConfig holds the stock-footage provider settings.
type StockConfig struct {
	APIKey      string `yaml:"api_key"`
	PerPage     int    `yaml:"per_page"`
	Orientation string `yaml:"orientation"`
}

// MusicConfig controls the background music mix.
type MusicConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	VolumeDB int    `yaml:"volume_db"`
}

// PathsConfig holds filesystem layout settings.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
	StockDir  string `yaml:"stock_dir"`
	CacheDir  string `yaml:"cache_dir"`
}

// SchedulerConfig controls the daemon's daily trigger.
type SchedulerConfig struct {
	Enabled            bool   `yaml:"enabled"`
	RunTime            string `yaml:"run_time"` // "HH:MM" local time
	Mode               string `yaml:"mode"`     // "batch" or "single"
	AutoGenerateTopics bool   `yaml:"auto_generate_topics"`
	TopicsPerRun       int    `yaml:"topics_per_run"`
	DefaultTopic       string `yaml:"default_topic"`
	TopicsFile         string `yaml:"topics_file"`
}

// APIConfig holds the local control API settings.
type APIConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// UploadConfig holds the publishing settings.
type UploadConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ClientSecrets string `yaml:"client_secrets"`
	TokenFile     string `yaml:"token_file"`
	Privacy       string `yaml:"privacy"`
}

// Settings is the full application configuration.
type Settings struct {
	LogLevel  string          `yaml:"log_level"`
	Engines   EnginesConfig   `yaml:"engines"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Piper     PiperConfig     `yaml:"piper"`
	Whisper   WhisperConfig   `yaml:"whisper"`
	Stock     StockConfig     `yaml:"stock"`
	Music     MusicConfig     `yaml:"music"`
	Paths     PathsConfig     `yaml:"paths"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	API       APIConfig       `yaml:"api"`
	Upload    UploadConfig    `yaml:"upload"`
}

// Default returns the baseline configuration.
func Default() Settings {
	dataDir := defaultDataDir()
	return Settings{
		LogLevel: DefaultLogLevel,
		Engines: EnginesConfig{
			Script:   "ollama",
			Audio:    "piper",
			Subtitle: "whisper",
			Video:    "ffmpeg",
			Upload:   "mock",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "mistral",
		},
		Piper: PiperConfig{
			Binary: "piper",
			Model:  filepath.Join(dataDir, "voices", "en_US-ryan-medium.onnx"),
		},
		Whisper: WhisperConfig{
			Binary: "whisper",
			Model:  "base",
		},
		Stock: StockConfig{
			PerPage:     DefaultStockPerPage,
			Orientation: DefaultStockOrientation,
		},
		Music: MusicConfig{
			Enabled:  true,
			Dir:      filepath.Join(dataDir, "music"),
			VolumeDB: DefaultMusicVolumeDB,
		},
		Paths: PathsConfig{
			DataDir:   dataDir,
			OutputDir: filepath.Join(dataDir, "output"),
			StockDir:  filepath.Join(dataDir, "stock_videos"),
			CacheDir:  filepath.Join(dataDir, "clip_cache"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      false,
			RunTime:      "09:00",
			Mode:         "batch",
			TopicsPerRun: 5,
			DefaultTopic: "Trending Topic of the Day",
			TopicsFile:   DefaultTopicsFile,
		},
		API: APIConfig{
			Port: DefaultPort,
		},
		Upload: UploadConfig{
			Enabled:       false,
			ClientSecrets: filepath.Join(dataDir, "client_secrets.json"),
			TokenFile:     filepath.Join(dataDir, "token.json"),
			Privacy:       "private",
		},
	}
}

// Load reads settings from path layered over Default, then applies
// environment overrides and validates. A missing file is not an error;
// defaults plus environment apply.
func Load(path string) (Settings, error) {
	cfg := Default()

	if path == "" {
		path = DefaultSettings
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Settings) applyEnv() error {
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.LogLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.Paths.DataDir = dd
		c.Paths.OutputDir = filepath.Join(dd, "output")
		c.Paths.StockDir = filepath.Join(dd, "stock_videos")
		c.Paths.CacheDir = filepath.Join(dd, "clip_cache")
	}
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.API.Port = port
	}
	if t := os.Getenv(EnvAuthToken); t != "" {
		c.API.AuthToken = t
	}
	if k := os.Getenv(EnvPexelsKey); k != "" {
		c.Stock.APIKey = k
	}
	if u := os.Getenv(EnvOllamaURL); u != "" {
		c.Ollama.BaseURL = u
	}
	if m := os.Getenv(EnvOllamaModel); m != "" {
		c.Ollama.Model = m
	}
	return nil
}

// Validate checks constraints that would otherwise surface as confusing
// runtime failures.
func (c *Settings) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.Stock.PerPage < 1 {
		return fmt.Errorf("stock.per_page must be at least 1, got %d", c.Stock.PerPage)
	}
	switch c.Scheduler.Mode {
	case "batch", "single":
	default:
		return fmt.Errorf("scheduler.mode must be batch or single, got %q", c.Scheduler.Mode)
	}
	if len(c.Scheduler.RunTime) != 5 || c.Scheduler.RunTime[2] != ':' {
		return fmt.Errorf("scheduler.run_time must be HH:MM, got %q", c.Scheduler.RunTime)
	}
	return nil
}

// RemoteStockEnabled reports whether the remote stock provider can be used.
func (c *Settings) RemoteStockEnabled() bool {
	return c.Stock.APIKey != ""
}

// RunsPath returns the path of the append-only run ledger.
func (c *Settings) RunsPath() string {
	return filepath.Join(c.Paths.DataDir, "runs.jsonl")
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
