package tools

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics

	// DefaultTimeout bounds any single tool invocation that the caller
	// does not bound itself.
	DefaultTimeout = 10 * time.Minute
)

// Runner executes external media tools as subprocesses. It is the single
// implementation of the tool execution contract used throughout storyforge.
type Runner interface {
	// Run executes bin with args and returns the structured result.
	// A spawn failure is reported as exit code -1 with the error text in
	// the stderr tail, never as a Go error; callers branch on RunResult.
	Run(ctx context.Context, bin string, args []string, opts RunOptions) RunResult
}

// RunOptions modifies a single tool invocation.
type RunOptions struct {
	Stdin   string        // text piped to the process when non-empty
	Env     []string      // extra KEY=VALUE entries appended to the environment
	Timeout time.Duration // 0 = DefaultTimeout
}

// SubprocessRunner is the production implementation of Runner.
type SubprocessRunner struct {
	logger *slog.Logger
}

// NewRunner creates a SubprocessRunner.
func NewRunner(logger *slog.Logger) *SubprocessRunner {
	return &SubprocessRunner{logger: logger}
}

func (r *SubprocessRunner) Run(ctx context.Context, bin string, args []string, opts RunOptions) RunResult {
	start := time.Now()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard // tools write their outputs to files, not stdout

	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	r.logger.Info("executing tool",
		"bin", bin,
		"args", args,
		"timeout", timeout,
	)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	stderrTail := stderrBuf.String()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
			if stderrTail == "" {
				stderrTail = err.Error()
			}
		}
	}

	if exitCode != 0 {
		r.logger.Warn("tool failed",
			"bin", bin,
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		r.logger.Info("tool succeeded",
			"bin", bin,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
