package compose

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func buildTestGraph(t *testing.T, canvas Canvas, layers []Layer) *Graph {
	t.Helper()
	g, err := testBuilder().Build(canvas, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func textLayer(text string) Layer {
	return Layer{Kind: KindText, Text: text, FontSize: 48, FontColor: "white", MaxLineLength: 30}
}

func TestAssembleImageOutput(t *testing.T) {
	canvas := Canvas{Width: 1080, Height: 1080}
	g := buildTestGraph(t, canvas, []Layer{textLayer("hello")})

	args, err := Assemble(canvas, g, nil, OutputParams{Kind: OutputImage}, "/scratch/out.png")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f lavfi -i color=c=black:s=1080x1080:d=1") {
		t.Errorf("missing generated canvas input: %q", joined)
	}
	if !slices.Contains(args, "-frames:v") {
		t.Errorf("single-frame flag missing: %q", joined)
	}
	if slices.Contains(args, "-map") && strings.Contains(joined, "0:a?") {
		t.Errorf("generated canvas must not map base audio: %q", joined)
	}
	if args[len(args)-1] != "/scratch/out.png" {
		t.Errorf("output path must be last: %q", joined)
	}
}

func TestAssembleVideoWithSecondaryAudio(t *testing.T) {
	canvas := Canvas{Width: 1080, Height: 1920, BaseVideo: "/containers/c1/video.mp4"}
	g := buildTestGraph(t, canvas, []Layer{
		{Kind: KindImage, Data: pngBytes(t), Width: 200, Height: 200},
		textLayer("caption"),
	})

	out := OutputParams{
		Kind:      OutputVideo,
		AudioPath: "/containers/c1/audio.mp3",
		Shortest:  true,
	}
	args, err := Assemble(canvas, g, []string{"/scratch/layer0.png"}, out, "/scratch/out.mp4")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	joined := strings.Join(args, " ")
	// Audio is input 2: canvas, one image, then audio.
	if !strings.Contains(joined, "-map 2:a") {
		t.Errorf("audio track not mapped explicitly: %q", joined)
	}
	if strings.Contains(joined, "0:a?") {
		t.Errorf("base audio must be overridden: %q", joined)
	}
	// Without an explicit duration the track plays once, so a short
	// track ends the output via -shortest.
	if slices.Contains(args, "-stream_loop") {
		t.Errorf("unlooped audio expected: %q", joined)
	}
	if !slices.Contains(args, "-shortest") {
		t.Errorf("shortest flag missing: %q", joined)
	}
}

func TestAssembleLoopsAudioForExplicitDuration(t *testing.T) {
	canvas := Canvas{Width: 1080, Height: 1920, BaseVideo: "/containers/c1/video.mp4"}
	g := buildTestGraph(t, canvas, []Layer{textLayer("hi")})

	out := OutputParams{
		Kind:        OutputVideo,
		AudioPath:   "/containers/c1/audio.mp3",
		LoopAudio:   true,
		DurationSec: 30,
	}
	args, err := Assemble(canvas, g, nil, out, "/scratch/out.mp4")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-stream_loop -1 -i /containers/c1/audio.mp3") {
		t.Errorf("audio not looped: %q", joined)
	}
	if !strings.Contains(joined, "-t 30.00") {
		t.Errorf("explicit duration missing: %q", joined)
	}
}

func TestAssembleExplicitDurationBeatsShortest(t *testing.T) {
	canvas := Canvas{Width: 1080, Height: 1920, BaseVideo: "/containers/c1/video.mp4"}
	g := buildTestGraph(t, canvas, []Layer{textLayer("hi")})

	out := OutputParams{
		Kind:        OutputVideo,
		AudioPath:   "/containers/c1/audio.mp3",
		Shortest:    true,
		DurationSec: 7.5,
	}
	args, err := Assemble(canvas, g, nil, out, "/scratch/out.mp4")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-t 7.50") {
		t.Errorf("explicit duration missing: %q", joined)
	}
	if slices.Contains(args, "-shortest") {
		t.Errorf("-shortest must yield to explicit duration: %q", joined)
	}
}

func TestAssembleBaseAudioPassthrough(t *testing.T) {
	canvas := Canvas{Width: 1080, Height: 1920, BaseVideo: "/containers/c1/video.mp4"}
	g := buildTestGraph(t, canvas, []Layer{textLayer("hi")})

	args, err := Assemble(canvas, g, nil, OutputParams{Kind: OutputVideo}, "/scratch/out.mp4")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	joined := strings.Join(args, " ")
	// Optional-existence map: never errors when the base has no audio.
	if !strings.Contains(joined, "-map 0:a?") {
		t.Errorf("optional base audio map missing: %q", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") {
		t.Errorf("video codec missing: %q", joined)
	}
}

func TestAssembleValidation(t *testing.T) {
	canvas := Canvas{Width: 100, Height: 100}
	g := buildTestGraph(t, canvas, []Layer{textLayer("hi")})

	t.Run("rejects empty output path", func(t *testing.T) {
		_, err := Assemble(canvas, g, nil, OutputParams{Kind: OutputImage}, "")
		if !errors.Is(err, ErrNoOutputPath) {
			t.Errorf("error = %v, want ErrNoOutputPath", err)
		}
	})

	t.Run("rejects staged path mismatch", func(t *testing.T) {
		_, err := Assemble(canvas, g, []string{"/stray.png"}, OutputParams{Kind: OutputImage}, "/out.png")
		if err == nil {
			t.Error("expected mismatch error")
		}
	})
}
