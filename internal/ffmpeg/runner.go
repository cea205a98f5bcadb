// Package ffmpeg wraps the external ffmpeg and ffprobe binaries behind a
// small Runner port so the rendering pipeline can be tested without them.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrProbeFailed is returned when ffprobe cannot read a media file.
var ErrProbeFailed = errors.New("ffprobe execution failed")

// Runner executes assembled media commands.
type Runner interface {
	// Run invokes ffmpeg with the given argument vector. The context
	// deadline kills the subprocess; stderr is captured into the
	// returned error on failure.
	Run(ctx context.Context, args []string) error

	// ProbeDuration returns the duration in seconds of a media file.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// CLI is the Runner implementation shelling out to the ffmpeg CLI.
type CLI struct {
	ffmpegPath  string
	ffprobePath string
}

// NewCLI creates a CLI runner. Empty paths default to "ffmpeg" and
// "ffprobe" resolved via PATH.
func NewCLI(ffmpegPath, ffprobePath string) *CLI {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &CLI{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Run executes ffmpeg and returns an *Error carrying the captured stderr
// if the command exits non-zero.
func (c *CLI) Run(ctx context.Context, args []string) error {
	// #nosec G204 - the binary path is operator configuration and the
	// args vector is assembled internally, never a shell string.
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &Error{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}

// ProbeDuration extracts the duration metadata of a media file.
func (c *CLI) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - see Run.
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrProbeFailed, err, stderr.String())
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

// Error is a failed ffmpeg invocation, including the stderr output.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *Error) Unwrap() error {
	return e.Err
}
