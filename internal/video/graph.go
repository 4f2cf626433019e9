package video

import (
	"fmt"
	"strconv"
	"strings"
)

// Target frame geometry for vertical shorts.
const (
	targetFPS    = 30
	targetWidth  = 1080
	targetHeight = 1920
)

// Graph is the declarative filter description handed to the renderer,
// plus the two output stream labels it must map.
type Graph struct {
	FilterComplex string
	VideoLabel    string
	AudioLabel    string
}

// BuildGraph synthesizes the filter graph for a clip set: per-clip
// normalization (frame rate, scale, portrait crop), chained crossfades at
// the planned boundaries, subtitle burn-in on the final stream, and the
// narration/music audio stage. It performs no I/O.
//
// Input index layout matches the render invocation: clips occupy inputs
// 0..n-1, narration is input n, music (when present) is input n+1.
func BuildGraph(clips []ClipAsset, subtitleFilter string, musicVolumeDB int, hasMusic bool) (Graph, error) {
	n := len(clips)
	if n == 0 {
		return Graph{}, fmt.Errorf("%w: empty clip set", ErrInvalidInput)
	}

	var b strings.Builder

	// Normalization stages, one uniquely labelled stream per clip.
	for i := range clips {
		fmt.Fprintf(&b, "[%d:v]fps=%d,scale=-2:%d,crop=%d:%d[v%d];",
			i, targetFPS, targetHeight, targetWidth, targetHeight, i)
	}

	// Fold consecutive streams pairwise with timed crossfades. Join j
	// starts at j*(clip-fade), landing exactly on the planned boundary.
	last := "v0"
	for j := 1; j < n; j++ {
		offset := float64(j)*ClipDuration - float64(j)*FadeDuration
		out := fmt.Sprintf("x%d", j)
		fmt.Fprintf(&b, "[%s][v%d]xfade=transition=fade:duration=%s:offset=%s[%s];",
			last, j, formatSeconds(FadeDuration), formatSeconds(offset), out)
		last = out
	}

	// Subtitles burn into the final folded stream.
	fmt.Fprintf(&b, "[%s]%s[vout];", last, subtitleFilter)

	// Audio stage: narration at unity gain, music attenuated and mixed
	// shortest, or a plain passthrough.
	if hasMusic {
		fmt.Fprintf(&b, "[%d:a]volume=0dB[voice];", n)
		fmt.Fprintf(&b, "[%d:a]volume=%ddB[music];", n+1, musicVolumeDB)
		b.WriteString("[voice][music]amix=inputs=2:duration=shortest[aout]")
	} else {
		fmt.Fprintf(&b, "[%d:a]anull[aout]", n)
	}

	return Graph{
		FilterComplex: b.String(),
		VideoLabel:    "[vout]",
		AudioLabel:    "[aout]",
	}, nil
}

// formatSeconds renders a duration with minimal digits (3.5, 7, 10.5).
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
