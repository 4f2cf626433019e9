package video

import (
	"fmt"
	"math"
)

const (
	// ClipDuration is the on-screen seconds each clip contributes before
	// transitions overlap it with its neighbours.
	ClipDuration = 4.0

	// FadeDuration is the crossfade overlap consumed at each clip join.
	FadeDuration = 0.5

	// SafetyBuffer is the slack the timeline keeps beyond the narration.
	SafetyBuffer = 0.5
)

// Plan is the derived timing for one render: how many clips are chained and
// how long the resulting timeline runs.
type Plan struct {
	ClipCount     int
	ClipDuration  float64
	FadeDuration  float64
	TotalTimeline float64
}

// NewPlan computes the minimum clip count whose chained, overlapping
// timeline covers the narration plus the safety buffer.
//
// Each clip after the first contributes ClipDuration-FadeDuration net
// seconds, because every join consumes FadeDuration of overlap.
func NewPlan(narrationSeconds float64) (Plan, error) {
	if narrationSeconds < 0 {
		return Plan{}, fmt.Errorf("%w: negative narration duration %f", ErrInvalidInput, narrationSeconds)
	}

	gain := ClipDuration - FadeDuration
	count := int(math.Ceil((narrationSeconds + SafetyBuffer - FadeDuration) / gain))
	if count < 1 {
		count = 1
	}

	return Plan{
		ClipCount:     count,
		ClipDuration:  ClipDuration,
		FadeDuration:  FadeDuration,
		TotalTimeline: float64(count)*ClipDuration - float64(count-1)*FadeDuration,
	}, nil
}
