package video

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storyforge/storyforge/internal/tools"
)

// fakeRunner records the invocation and returns a scripted result.
type fakeRunner struct {
	bin    string
	args   []string
	result tools.RunResult
}

func (f *fakeRunner) Run(ctx context.Context, bin string, args []string, opts tools.RunOptions) tools.RunResult {
	f.bin = bin
	f.args = args
	return f.result
}

func TestBuildRenderArgs(t *testing.T) {
	clips := []ClipAsset{
		{SourceID: "pexels-1", LocalPath: "/cache/pexels-1.mp4"},
		{SourceID: "pexels-2", LocalPath: "/cache/pexels-2.mp4"},
	}
	graph := Graph{FilterComplex: "FC", VideoLabel: "[vout]", AudioLabel: "[aout]"}

	args := buildRenderArgs(clips, "/out/voice.wav", "/music/track.mp3", graph, "/out/final.mp4")
	joined := strings.Join(args, " ")

	// Each clip loops and is capped at the clip duration.
	if strings.Count(joined, "-stream_loop -1 -t 4 -i /cache/pexels-") != 2 {
		t.Errorf("clip inputs malformed: %s", joined)
	}
	if !strings.Contains(joined, "-i /out/voice.wav") {
		t.Errorf("narration input missing: %s", joined)
	}
	if !strings.Contains(joined, "-stream_loop -1 -i /music/track.mp3") {
		t.Errorf("looped music input missing: %s", joined)
	}
	if !strings.Contains(joined, "-filter_complex FC -map [vout] -map [aout] -shortest") {
		t.Errorf("graph wiring missing: %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264 -preset fast -c:a aac -b:a 192k /out/final.mp4") {
		t.Errorf("codec settings missing: %s", joined)
	}
	if args[0] != "-y" {
		t.Errorf("args[0] = %s, want -y", args[0])
	}

	// Input ordering: clips, then narration, then music.
	narrIdx := strings.Index(joined, "/out/voice.wav")
	musicIdx := strings.Index(joined, "/music/track.mp3")
	clipIdx := strings.LastIndex(joined, "/cache/pexels-2.mp4")
	if !(clipIdx < narrIdx && narrIdx < musicIdx) {
		t.Errorf("input order wrong: %s", joined)
	}
}

func TestBuildRenderArgs_NoMusic(t *testing.T) {
	clips := []ClipAsset{{SourceID: "a", LocalPath: "/cache/a.mp4"}}
	graph := Graph{FilterComplex: "FC", VideoLabel: "[vout]", AudioLabel: "[aout]"}

	args := buildRenderArgs(clips, "/out/voice.wav", "", graph, "/out/final.mp4")
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "music") {
		t.Errorf("music input present without a track: %s", joined)
	}
	if strings.Count(joined, "-i ") != 2 {
		t.Errorf("want exactly 2 inputs (clip + narration): %s", joined)
	}
}

func TestInvoker_Render(t *testing.T) {
	runner := &fakeRunner{result: tools.RunResult{ExitCode: 0}}
	inv := NewInvoker(runner, testLogger())
	graph := Graph{FilterComplex: "FC", VideoLabel: "[vout]", AudioLabel: "[aout]"}

	out, err := inv.Render(context.Background(), testClips(1), "/v.wav", "", graph, "/out/final.mp4")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "/out/final.mp4" {
		t.Errorf("Render() = %s, want /out/final.mp4", out)
	}
	if runner.bin != "ffmpeg" {
		t.Errorf("bin = %s, want ffmpeg", runner.bin)
	}
}

func TestInvoker_RenderError(t *testing.T) {
	runner := &fakeRunner{result: tools.RunResult{ExitCode: 1, StderrTail: "No such filter: 'xfade'"}}
	inv := NewInvoker(runner, testLogger())
	graph := Graph{FilterComplex: "FC", VideoLabel: "[vout]", AudioLabel: "[aout]"}

	_, err := inv.Render(context.Background(), testClips(1), "/v.wav", "", graph, "/out/final.mp4")

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %T, want *RenderError", err)
	}
	if renderErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", renderErr.ExitCode)
	}
	if !strings.Contains(renderErr.StderrTail, "xfade") {
		t.Errorf("StderrTail = %q, want captured diagnostics", renderErr.StderrTail)
	}
}

func TestInvoker_EmptyClipSet(t *testing.T) {
	inv := NewInvoker(&fakeRunner{}, testLogger())
	_, err := inv.Render(context.Background(), nil, "/v.wav", "", Graph{}, "/out/final.mp4")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Render(empty) error = %v, want ErrInvalidInput", err)
	}
}
