// Package video contains the clip planning, supply, and composition core:
// it decides how many stock clips a narration needs, acquires unique clip
// files remotely or from a local pool, builds the ffmpeg filter graph, and
// invokes the render.
package video

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks arguments that cannot be planned or composed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is the soft per-term failure: the remote provider had no
	// usable result for a search term. Callers try the next term.
	ErrNotFound = errors.New("no clip found")

	// ErrNoAssets is fatal: no clip could be obtained by any path.
	ErrNoAssets = errors.New("no clips available from any source")
)

// RenderError reports a nonzero exit from the external renderer.
type RenderError struct {
	ExitCode   int
	StderrTail string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("ffmpeg exited %d: %s", e.ExitCode, e.StderrTail)
}
