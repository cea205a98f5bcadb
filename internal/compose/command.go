package compose

import (
	"errors"
	"fmt"
)

// ErrNoOutputPath is returned when Assemble is called without an output path.
var ErrNoOutputPath = errors.New("compose: output path is required")

// OutputKind selects the artifact type produced by a command.
type OutputKind string

const (
	// OutputImage produces a single-frame image.
	OutputImage OutputKind = "image"
	// OutputVideo produces an encoded video.
	OutputVideo OutputKind = "video"
)

// OutputParams are the output-side parameters of an assembled command.
type OutputParams struct {
	// Kind selects image or video output.
	Kind OutputKind
	// DurationSec is an explicit output duration; zero means unset.
	// When set it takes precedence over Shortest.
	DurationSec float64
	// AudioPath is an optional secondary audio track, already staged.
	// It is mapped as the output's audio, overriding any base audio.
	AudioPath string
	// LoopAudio repeats the audio input indefinitely so it can cover an
	// explicit duration longer than the track. Without it the track plays
	// once and Shortest lets a short track end the output.
	LoopAudio bool
	// Shortest stops encoding at the shortest input.
	Shortest bool
	// FrameRate is the output frame rate for video; zero means 25.
	FrameRate int
}

// Assemble turns a built graph, the staged input paths, and the output
// parameters into a complete ffmpeg argument vector. Inputs are ordered
// canvas first, then each staged image in graph order, then the optional
// audio track. The vector is passed to exec directly; no shell is involved.
func Assemble(canvas Canvas, g *Graph, imagePaths []string, out OutputParams, outputPath string) ([]string, error) {
	if outputPath == "" {
		return nil, ErrNoOutputPath
	}
	if len(imagePaths) != len(g.Files) {
		return nil, fmt.Errorf("compose: %d staged paths for %d graph files", len(imagePaths), len(g.Files))
	}

	args := []string{"-y"}

	if canvas.Generated() {
		args = append(args, "-f", "lavfi", "-i", canvas.SourceSpec())
	} else {
		args = append(args, "-i", canvas.BaseVideo)
	}

	for _, p := range imagePaths {
		args = append(args, "-i", p)
	}

	audioIdx := -1
	if out.AudioPath != "" {
		audioIdx = 1 + len(imagePaths)
		if out.LoopAudio {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", out.AudioPath)
	}

	args = append(args, "-filter_complex", g.FilterComplex())
	args = append(args, "-map", OutputLabel)

	switch {
	case audioIdx >= 0:
		args = append(args, "-map", fmt.Sprintf("%d:a", audioIdx))
	case !canvas.Generated():
		// Pass the base media's own audio through only if present.
		args = append(args, "-map", "0:a?")
	}

	switch out.Kind {
	case OutputImage:
		args = append(args, "-frames:v", "1")
	case OutputVideo:
		fps := out.FrameRate
		if fps <= 0 {
			fps = 25
		}
		args = append(args,
			"-c:v", "libx264",
			"-preset", "fast",
			"-pix_fmt", "yuv420p",
			"-r", fmt.Sprintf("%d", fps),
		)
		if audioIdx >= 0 || !canvas.Generated() {
			args = append(args, "-c:a", "aac", "-b:a", "128k")
		}
		if out.DurationSec > 0 {
			args = append(args, "-t", fmt.Sprintf("%.2f", out.DurationSec))
		} else if out.Shortest {
			args = append(args, "-shortest")
		}
	}

	args = append(args, outputPath)
	return args, nil
}
