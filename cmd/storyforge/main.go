package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/api"
	"github.com/storyforge/storyforge/internal/batch"
	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/logging"
	"github.com/storyforge/storyforge/internal/output"
	"github.com/storyforge/storyforge/internal/pipeline"
	"github.com/storyforge/storyforge/internal/preview"
	"github.com/storyforge/storyforge/internal/runs"
	"github.com/storyforge/storyforge/internal/schedule"
	"github.com/storyforge/storyforge/internal/tools"
)

var configPath string

func main() {
	// A local .env is optional; environment overrides still apply without it.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "storyforge",
		Short:        "Automated short-form video generation",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to settings.yaml")

	root.AddCommand(
		newGenerateCmd(),
		newBatchCmd(),
		newScheduleCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components most commands need.
type app struct {
	cfg     config.Settings
	logger  *slog.Logger
	runner  tools.Runner
	store   *runs.FileStore
	service *pipeline.Service
}

func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	runner := tools.NewRunner(logger)

	store, err := runs.NewFileStore(cfg.RunsPath())
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}

	engines := pipeline.BuildEngines(cfg, runner, logger)
	layout := output.Layout{Base: cfg.Paths.OutputDir}
	service := pipeline.NewService(engines, store, layout, cfg.Upload.Enabled, cfg.Upload.Privacy, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		runner:  runner,
		store:   store,
		service: service,
	}, nil
}

func newGenerateCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a single video for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			run, err := a.service.Run(cmd.Context(), topic)
			if err != nil {
				return err
			}
			fmt.Printf("completed: %s\n", run.VideoPath)
			if run.UploadURL != "" {
				fmt.Printf("published: %s\n", run.UploadURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "video topic")
	cmd.MarkFlagRequired("topic")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var topicsFile string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate videos for every topic in a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			if topicsFile == "" {
				topicsFile = a.cfg.Scheduler.TopicsFile
			}
			topics, err := batch.LoadTopics(topicsFile)
			if err != nil {
				return err
			}
			if len(topics) == 0 {
				return fmt.Errorf("no topics in %s", topicsFile)
			}

			errLog := filepath.Join(a.cfg.Paths.DataDir, "batch_errors.log")
			processor := batch.NewProcessor(a.service, errLog, a.logger)
			summary := processor.ProcessAll(cmd.Context(), topics)

			fmt.Printf("batch done: %d total, %d successful, %d failed\n",
				summary.Total, len(summary.Successful), len(summary.Failed))
			for _, f := range summary.Failed {
				fmt.Printf("  failed: %s: %v\n", f.Topic, f.Err)
			}
			if len(summary.Failed) > 0 {
				return fmt.Errorf("%d topics failed, details in %s", len(summary.Failed), errLog)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topicsFile, "topics-file", "", "topics file, one per line")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the daemon: queue worker, daily trigger, and control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			return runDaemon(a)
		},
	}
}

func runDaemon(a *app) error {
	startTime := time.Now()
	cfg := a.cfg

	authToken := cfg.API.AuthToken
	if authToken == "" {
		authToken = newEphemeralToken()
		a.logger.Warn("no api auth token configured, generated an ephemeral one")
	}
	fmt.Printf("API:   http://127.0.0.1:%d\n", cfg.API.Port)
	fmt.Printf("Token: %s\n", authToken)

	doctor := tools.NewCachedDoctor(
		tools.NewDoctor(cfg.Piper.Binary, cfg.Whisper.Binary, cfg.Ollama.BaseURL, a.logger),
		a.logger,
	)
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if caps, err := doctor.Refresh(initCtx); err != nil {
		a.logger.Warn("initial environment probe failed", "error", err)
	} else {
		avail, total := caps.Summary()
		a.logger.Info("environment probed", "tools", fmt.Sprintf("%d/%d", avail, total))
	}
	initCancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := schedule.NewWorker(a.service, a.store, a.logger)
	go worker.Start(ctx)

	if cfg.Scheduler.Enabled {
		errLog := filepath.Join(cfg.Paths.DataDir, "batch_errors.log")
		processor := batch.NewProcessor(a.service, errLog, a.logger)
		scheduler := schedule.NewScheduler(cfg.Scheduler, processor, a.service, a.logger)
		go func() {
			if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("scheduler stopped", "error", err)
			}
		}()
	} else {
		a.logger.Info("daily scheduler disabled, queue worker only")
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.API.Port,
		AuthToken: authToken,
		Store:     a.store,
		Worker:    worker,
		Doctor:    doctor,
		Preview:   preview.NewServer(a.logger),
		Logger:    a.logger,
		StartTime: startTime,
	})
	go func() {
		if err := apiServer.Start(); err != nil {
			a.logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	a.logger.Info("received shutdown signal", "signal", sig.String())

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the required external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			d := tools.NewDoctor(a.cfg.Piper.Binary, a.cfg.Whisper.Binary, a.cfg.Ollama.BaseURL, a.logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			caps, err := d.Probe(ctx)
			if err != nil {
				return err
			}

			for name, info := range caps.Tools {
				mark := "ok"
				detail := info.Version
				if !info.Available {
					mark = "MISSING"
					detail = info.Error
				}
				fmt.Printf("%-10s %-8s %s\n", name, mark, detail)
			}
			ollama := "MISSING"
			if caps.OllamaReachable {
				ollama = "ok"
			}
			fmt.Printf("%-10s %-8s %s\n", "ollama", ollama, a.cfg.Ollama.BaseURL)

			avail, total := caps.Summary()
			fmt.Printf("\n%d/%d tools available\n", avail, total)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("storyforge %s (commit %s, built %s)\n",
				config.Version, config.GitCommit, config.BuildTime)
		},
	}
}

func newEphemeralToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
