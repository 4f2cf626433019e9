package video

import (
	"errors"
	"math"
	"testing"
)

func TestNewPlan_ClipCounts(t *testing.T) {
	tests := []struct {
		narration float64
		wantCount int
	}{
		{0, 1},
		{3.5, 1},
		{4.0, 2},
		{14.0, 4},
		{14.1, 5},
		{60.0, 18},
	}

	for _, tt := range tests {
		plan, err := NewPlan(tt.narration)
		if err != nil {
			t.Fatalf("NewPlan(%v) error = %v", tt.narration, err)
		}
		if plan.ClipCount != tt.wantCount {
			t.Errorf("NewPlan(%v).ClipCount = %d, want %d", tt.narration, plan.ClipCount, tt.wantCount)
		}
	}
}

func TestNewPlan_TimelineInvariant(t *testing.T) {
	plan, err := NewPlan(14.0)
	if err != nil {
		t.Fatal(err)
	}

	wantTimeline := float64(plan.ClipCount)*ClipDuration - float64(plan.ClipCount-1)*FadeDuration
	if math.Abs(plan.TotalTimeline-wantTimeline) > 1e-9 {
		t.Errorf("TotalTimeline = %v, want %v", plan.TotalTimeline, wantTimeline)
	}
}

func TestNewPlan_CoversNarrationPlusBuffer(t *testing.T) {
	for d := 0.0; d <= 120.0; d += 0.7 {
		plan, err := NewPlan(d)
		if err != nil {
			t.Fatalf("NewPlan(%v) error = %v", d, err)
		}
		if plan.TotalTimeline < d+SafetyBuffer-1e-9 {
			t.Errorf("NewPlan(%v).TotalTimeline = %v, want >= %v", d, plan.TotalTimeline, d+SafetyBuffer)
		}
	}
}

func TestNewPlan_NegativeDuration(t *testing.T) {
	_, err := NewPlan(-1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NewPlan(-1) error = %v, want ErrInvalidInput", err)
	}
}
